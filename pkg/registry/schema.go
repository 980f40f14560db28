// pkg/registry/schema.go
package registry

type ActivityRegistry struct {
	Version     string     `json:"version" yaml:"version"`
	LastUpdated string     `json:"lastUpdated" yaml:"lastUpdated"`
	Activities  []Activity `json:"activities" yaml:"activities"`
}

// Activity describes one Zeebe job type: the process variables it reads and
// writes, the BPMN error codes it can throw and its default limits.
type Activity struct {
	ID                   string            `json:"id" yaml:"id"`
	DisplayName          string            `json:"displayName" yaml:"displayName"`
	Description          string            `json:"description" yaml:"description"`
	Category             string            `json:"category" yaml:"category"`
	Version              string            `json:"version" yaml:"version"`
	TaskType             string            `json:"taskType" yaml:"taskType"`
	ImplementationStatus string            `json:"implementationStatus" yaml:"implementationStatus"`
	InputSchema          map[string]string `json:"inputSchema" yaml:"inputSchema"`
	OutputSchema         map[string]string `json:"outputSchema" yaml:"outputSchema"`
	ErrorCodes           []string          `json:"errorCodes" yaml:"errorCodes"`
	Timeout              string            `json:"timeout" yaml:"timeout"`
	Retries              int               `json:"retries" yaml:"retries"`
	Workflows            []string          `json:"workflows" yaml:"workflows"`
	Tags                 []string          `json:"tags" yaml:"tags"`
}
