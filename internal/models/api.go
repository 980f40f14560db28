// internal/models/api.go
package models

import (
	"strings"

	"cx-agent-builder/internal/common/validation"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultLanguage = "en-US"
	DefaultPlatform = "voiceowl"
	MinPromptLength = 10
)

// SupportedLanguages lists the language tags a request may carry.
var SupportedLanguages = []string{"en-US", "en-GB", "es-ES", "fr-FR", "de-DE", "hi-IN", "ja-JP"}

// AgentCreateRequest is the incoming request to generate an agent.
type AgentCreateRequest struct {
	UserPrompt  string `json:"user_prompt"`
	Language    string `json:"language,omitempty"`
	Platform    string `json:"platform,omitempty"`
	NotifyEmail string `json:"notify_email,omitempty"`
}

// WithDefaults fills in language and platform when they are empty.
func (r AgentCreateRequest) WithDefaults() AgentCreateRequest {
	r.UserPrompt = strings.TrimSpace(r.UserPrompt)
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Platform == "" {
		r.Platform = DefaultPlatform
	}
	return r
}

var createRequestSchema = validation.NewSchema("agent-create-request", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"user_prompt"},
	"properties": map[string]interface{}{
		"user_prompt": map[string]interface{}{"type": "string", "minLength": MinPromptLength},
		"language":    map[string]interface{}{"type": "string", "enum": toInterfaces(SupportedLanguages)},
		"platform":    map[string]interface{}{"type": "string", "minLength": 1},
		"notify_email": map[string]interface{}{
			"type":    "string",
			"pattern": `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`,
		},
	},
})

// Validate checks the request after defaults have been applied.
func (r AgentCreateRequest) Validate() (*validation.ValidationResult, error) {
	return createRequestSchema.Validate(r)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// AgentCreateResponse carries either a complete configuration or a failure
// message, never both.
type AgentCreateResponse struct {
	Success           bool           `json:"success"`
	Message           string         `json:"message"`
	AgentConfig       *CXAgentConfig `json:"agent_config"`
	OpenAIToolsSchema []openai.Tool  `json:"openai_tools_schema"`
	RawAnalysis       *AnalysisBrief `json:"raw_analysis"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type ExampleResponse struct {
	Input  AgentCreateRequest   `json:"input"`
	Output *AgentCreateResponse `json:"output"`
}

// Stage names reported while a request moves through the pipeline.
const (
	StageAnalysis    = "analysis"
	StageAgentConfig = "agent_config"
	StageFunctions   = "functions"
	StageMerge       = "merge"
	StageComplete    = "complete"
	StageError       = "error"
)

// StageEvent is a progress notification streamed to websocket clients.
type StageEvent struct {
	Stage   string      `json:"stage"`
	Mode    string      `json:"mode,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
