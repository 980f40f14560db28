// internal/models/agent.go
package models

import "encoding/json"

// NodeType is the kind of step a flow node represents.
type NodeType string

const (
	NodeGreeting    NodeType = "greeting"
	NodeCollectInfo NodeType = "collect_info"
	NodeAPICall     NodeType = "api_call"
	NodeDecision    NodeType = "decision"
	NodeResponse    NodeType = "response"
	NodeConfirm     NodeType = "confirm"
	NodeFallback    NodeType = "fallback"
	NodeTransfer    NodeType = "transfer"
	NodeEnd         NodeType = "end"
)

// AgentStatus is the lifecycle state of a generated configuration.
type AgentStatus string

const (
	StatusDraft    AgentStatus = "draft"
	StatusTesting  AgentStatus = "testing"
	StatusDeployed AgentStatus = "deployed"
	StatusArchived AgentStatus = "archived"
)

type PersonaConfig struct {
	Name              string   `json:"name"`
	Role              string   `json:"role"`
	PersonalityTraits []string `json:"personality_traits"`
	GreetingStyle     string   `json:"greeting_style"`
	SystemPrompt      string   `json:"system_prompt"`
	GreetingMessage   string   `json:"greeting_message,omitempty"`
	FallbackMessage   string   `json:"fallback_message"`
	EscalationMessage string   `json:"escalation_message"`
	MaxRetries        int      `json:"max_retries"`
}

type VoiceConfig struct {
	Provider     string  `json:"provider"`
	VoiceID      string  `json:"voice_id"`
	Gender       string  `json:"gender"`
	Language     string  `json:"language"`
	SpeakingRate float64 `json:"speaking_rate"`
	Pitch        float64 `json:"pitch"`
}

type TrainingPhrase struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type IntentDefinition struct {
	IntentID        string           `json:"intent_id,omitempty"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	TrainingPhrases []TrainingPhrase `json:"training_phrases"`
	Priority        int              `json:"priority"`
}

// FunctionParameter is one argument of a callable function.
type FunctionParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default"`
	Enum        []string    `json:"enum"`
}

// UnmarshalJSON treats an absent "required" key as true.
func (p *FunctionParameter) UnmarshalJSON(data []byte) error {
	type plain FunctionParameter
	aux := struct {
		*plain
		Required *bool `json:"required"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Required = aux.Required == nil || *aux.Required
	return nil
}

type APIEndpoint struct {
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	AuthType       string            `json:"auth_type,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds"`
}

// FunctionDefinition is a callable, API-backed operation available to the
// generated agent.
type FunctionDefinition struct {
	FunctionID         string                 `json:"function_id,omitempty"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description"`
	Parameters         []FunctionParameter    `json:"parameters"`
	ReturnsDescription string                 `json:"returns_description"`
	APIEndpoint        *APIEndpoint           `json:"api_endpoint"`
	MockResponse       map[string]interface{} `json:"mock_response"`
}

type FlowTransition struct {
	Condition    string `json:"condition"`
	TargetNodeID string `json:"target_node_id"`
}

type FlowNode struct {
	NodeID       string           `json:"node_id"`
	Type         NodeType         `json:"type"`
	Label        string           `json:"label"`
	PromptText   string           `json:"prompt_text,omitempty"`
	CollectSlot  string           `json:"collect_slot,omitempty"`
	FunctionCall string           `json:"function_call,omitempty"`
	Transitions  []FlowTransition `json:"transitions"`
}

type ConversationFlow struct {
	FlowID      string     `json:"flow_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	EntryNodeID string     `json:"entry_node_id"`
	Nodes       []FlowNode `json:"nodes"`
}

// Node returns the node with the given id.
func (f *ConversationFlow) Node(id string) (*FlowNode, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].NodeID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// AgentDraft is the agent-side output of generation, before the function
// catalogue is merged in.
type AgentDraft struct {
	Persona          PersonaConfig      `json:"persona"`
	Voice            VoiceConfig        `json:"voice"`
	Intents          []IntentDefinition `json:"intents"`
	ConversationFlow *ConversationFlow  `json:"conversation_flow"`
}

// FunctionCatalogue is the envelope used by the function stage.
type FunctionCatalogue struct {
	Functions []FunctionDefinition `json:"functions"`
}

type DeploymentConfig struct {
	Platform           string `json:"platform"`
	PhoneNumber        string `json:"phone_number,omitempty"`
	WebhookURL         string `json:"webhook_url,omitempty"`
	Environment        string `json:"environment"`
	MaxConcurrentCalls int    `json:"max_concurrent_calls"`
	RecordingEnabled   bool   `json:"recording_enabled"`
	AnalyticsEnabled   bool   `json:"analytics_enabled"`
}

// CXAgentConfig is the complete configuration of a generated phone agent.
// It is assembled once and not modified afterwards.
type CXAgentConfig struct {
	AgentID          string                 `json:"agent_id"`
	Version          string                 `json:"version"`
	Status           AgentStatus            `json:"status"`
	CreatedAt        string                 `json:"created_at"`
	Persona          PersonaConfig          `json:"persona"`
	Voice            VoiceConfig            `json:"voice"`
	Intents          []IntentDefinition     `json:"intents"`
	Functions        []FunctionDefinition   `json:"functions"`
	ConversationFlow *ConversationFlow      `json:"conversation_flow"`
	Deployment       DeploymentConfig       `json:"deployment"`
	Metadata         map[string]interface{} `json:"metadata"`
}
