// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

const (
	RegistryVersion = "1.0.0"
	WorkflowID      = "cx-agent-generation"
	categoryMeta    = "meta-agent"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Default returns the activities served by the worker manager, in process
// order.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     RegistryVersion,
		LastUpdated: "2026-10-19",
		Activities: []Activity{
			metaActivity("analyze-request", "Analyze Request",
				"Turns the free-text request into an analysis brief",
				map[string]string{"userPrompt": "string", "language": "string", "platform": "string"},
				map[string]string{"analysisBrief": "object", "language": "string", "platform": "string", "generationMode": "string"},
				[]string{"INVALID_REQUEST", "ANALYSIS_FAILED", "LLM_TIMEOUT", "LLM_GENERATION_FAILED"}, "90s", 1),
			metaActivity("create-agent-config", "Create Agent Config",
				"Builds persona, voice, intents and conversation flow from the brief",
				map[string]string{"analysisBrief": "object"},
				map[string]string{"agentDraft": "object", "intentCount": "integer", "nodeCount": "integer"},
				[]string{"INVALID_REQUEST", "AGENT_GENERATION_FAILED", "LLM_TIMEOUT", "LLM_GENERATION_FAILED"}, "90s", 1),
			metaActivity("create-functions", "Create Functions",
				"Builds the function catalogue and its OpenAI tools schema",
				map[string]string{"analysisBrief": "object"},
				map[string]string{"functions": "array", "openaiToolsSchema": "array", "functionCount": "integer"},
				[]string{"INVALID_REQUEST", "FUNCTION_GENERATION_FAILED", "LLM_TIMEOUT", "LLM_GENERATION_FAILED"}, "90s", 1),
			metaActivity("merge-config", "Merge Config",
				"Assembles the final agent configuration",
				map[string]string{"userPrompt": "string", "language": "string", "platform": "string", "generationMode": "string",
					"analysisBrief": "object", "agentDraft": "object", "functions": "array"},
				map[string]string{"agentConfig": "object", "agentId": "string", "message": "string"},
				[]string{"INVALID_REQUEST", "MALFORMED_DRAFT"}, "10s", 0),
			metaActivity("persist-agent", "Persist Agent",
				"Stores the configuration in PostgreSQL and indexes it for search",
				map[string]string{"agentConfig": "object"},
				map[string]string{"agentId": "string", "persisted": "boolean", "indexed": "boolean"},
				[]string{"INVALID_REQUEST", "DATABASE_INSERT_FAILED", "QUERY_TIMEOUT", "INDEX_FAILED"}, "30s", 3),
			metaActivity("notify-agent-created", "Notify Agent Created",
				"Publishes agent.created and mails a summary",
				map[string]string{"agentConfig": "object", "notifyEmail": "string"},
				map[string]string{"eventMessageId": "string", "mailMessageId": "string", "notified": "boolean"},
				[]string{"INVALID_REQUEST", "NOTIFICATION_SEND_FAILED"}, "15s", 3),
		},
	}
}

func metaActivity(taskType, name, description string, in, out map[string]string, codes []string, timeout string, retries int) Activity {
	return Activity{
		ID:                   taskType,
		DisplayName:          name,
		Description:          description,
		Category:             categoryMeta,
		Version:              RegistryVersion,
		TaskType:             taskType,
		ImplementationStatus: "implemented",
		InputSchema:          in,
		OutputSchema:         out,
		ErrorCodes:           codes,
		Timeout:              timeout,
		Retries:              retries,
		Workflows:            []string{WorkflowID},
		Tags:                 []string{categoryMeta},
	}
}

func (r *ActivityRegistry) Lookup(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Unknown returns the task types in taskTypes that have no activity, sorted.
func (r *ActivityRegistry) Unknown(taskTypes []string) []string {
	var out []string
	for _, tt := range taskTypes {
		if _, ok := r.Lookup(tt); !ok {
			out = append(out, tt)
		}
	}
	sort.Strings(out)
	return out
}
