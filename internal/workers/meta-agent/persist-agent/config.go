package persistagent

import "time"

type Config struct {
	Timeout time.Duration
	// RequireIndex turns an indexing failure into a job failure.
	RequireIndex bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
