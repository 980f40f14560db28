package persistagent

import "cx-agent-builder/internal/models"

type Input struct {
	AgentConfig *models.CXAgentConfig `json:"agentConfig"`
}

type Output struct {
	AgentID   string `json:"agentId"`
	Persisted bool   `json:"persisted"`
	Indexed   bool   `json:"indexed"`
}
