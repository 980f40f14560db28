// internal/merge/merger_test.go
package merge

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"cx-agent-builder/internal/agentgen"
	"cx-agent-builder/internal/analysis"
	"cx-agent-builder/internal/functions"
	"cx-agent-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appointmentPrompt = "Create a support bot for appointment booking. It should greet, ask for name and date, and confirm availability via an API."

// ==========================
// Test Helper Functions
// ==========================

func fixedClock() time.Time {
	return time.Date(2026, 2, 24, 10, 30, 0, 0, time.UTC)
}

func ruleInput(prompt string) Input {
	brief := analysis.Analyze(prompt, "en-US", "voiceowl")
	return Input{
		Brief:     brief,
		Draft:     agentgen.Create(brief),
		Functions: functions.BuildAll(brief.FunctionsNeeded),
		Prompt:    prompt,
		Language:  "en-US",
		Platform:  "voiceowl",
		Mode:      "rule_based",
	}
}

// ==========================
// Merge Tests
// ==========================

func TestMerge_RuleOutput(t *testing.T) {
	m := NewMerger(WithClock(fixedClock))

	cfg, err := m.Merge(ruleInput(appointmentPrompt))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^agent_[0-9a-f]{12}$`), cfg.AgentID)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, models.StatusDraft, cfg.Status)
	assert.Equal(t, "2026-02-24T10:30:00Z", cfg.CreatedAt)
	assert.Equal(t, "MediBot", cfg.Persona.Name)
	assert.Equal(t, "voiceowl", cfg.Deployment.Platform)
	assert.Equal(t, "staging", cfg.Deployment.Environment)
	assert.Equal(t, 10, cfg.Deployment.MaxConcurrentCalls)
	assert.True(t, cfg.Deployment.RecordingEnabled)
	assert.True(t, cfg.Deployment.AnalyticsEnabled)
	assert.Equal(t, "healthcare", cfg.Metadata["source_prompt"])
	assert.Equal(t, "rule_based", cfg.Metadata["generation_mode"])

	require.NotEmpty(t, cfg.Functions)
	assert.Equal(t, "get_appointment_slots", cfg.Functions[0].Name)
	assert.Equal(t, "GET", cfg.Functions[0].APIEndpoint.Method)
	for _, fn := range cfg.Functions {
		assert.Regexp(t, `^fn_[0-9a-f]{8}$`, fn.FunctionID)
	}
	for _, intent := range cfg.Intents {
		assert.Regexp(t, `^intent_[0-9a-f]{8}$`, intent.IntentID)
	}
	require.NotNil(t, cfg.ConversationFlow)
	assert.Regexp(t, `^flow_[0-9a-f]{8}$`, cfg.ConversationFlow.FlowID)
}

func TestMerge_IsIdempotent(t *testing.T) {
	m := NewMerger(WithClock(fixedClock))

	first, err := m.Merge(ruleInput(appointmentPrompt))
	require.NoError(t, err)
	second, err := m.Merge(ruleInput(appointmentPrompt))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMerge_IDsDependOnRequest(t *testing.T) {
	m := NewMerger(WithClock(fixedClock))

	a, err := m.Merge(ruleInput(appointmentPrompt))
	require.NoError(t, err)
	in := ruleInput(appointmentPrompt)
	in.Language = "en-GB"
	b, err := m.Merge(in)
	require.NoError(t, err)

	assert.NotEqual(t, a.AgentID, b.AgentID)
}

func TestMerge_Defaults(t *testing.T) {
	m := NewMerger(WithClock(fixedClock))

	cfg, err := m.Merge(Input{
		Draft: &models.AgentDraft{
			Intents: []models.IntentDefinition{{Name: "greeting", TrainingPhrases: []models.TrainingPhrase{{Text: "Hi"}}}},
			ConversationFlow: &models.ConversationFlow{
				Nodes: []models.FlowNode{
					{NodeID: "node_greet", Transitions: []models.FlowTransition{{Condition: "user_responds", TargetNodeID: "node_end"}}},
					{NodeID: "node_end", Type: models.NodeEnd},
				},
			},
		},
		Functions: []models.FunctionDefinition{{Name: "do_thing", APIEndpoint: &models.APIEndpoint{}}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PersonaConfig{
		Name:              "Ava",
		Role:              "Customer Support Agent",
		PersonalityTraits: []string{"friendly"},
		GreetingStyle:     "warm",
		SystemPrompt:      "You are a helpful agent.",
		FallbackMessage:   "I didn't catch that.",
		EscalationMessage: "Let me transfer you.",
		MaxRetries:        3,
	}, cfg.Persona)
	assert.Equal(t, models.VoiceConfig{
		Provider: "google", VoiceID: "en-US-Neural2-F", Gender: "female", Language: "en-US", SpeakingRate: 1.0,
	}, cfg.Voice)
	assert.Equal(t, "en-US", cfg.Intents[0].TrainingPhrases[0].Language)

	ep := cfg.Functions[0].APIEndpoint
	assert.Equal(t, "/api/v1/action", ep.URL)
	assert.Equal(t, "POST", ep.Method)
	assert.Equal(t, 10, ep.TimeoutSeconds)

	flow := cfg.ConversationFlow
	assert.Equal(t, "main_flow", flow.Name)
	assert.Equal(t, "node_greet", flow.EntryNodeID)
	assert.Equal(t, models.NodeResponse, flow.Nodes[0].Type)
	assert.Equal(t, models.DefaultPlatform, cfg.Deployment.Platform)
	assert.Equal(t, "", cfg.Metadata["source_prompt"])
}

func TestMerge_RepointsUnknownFunction(t *testing.T) {
	m := NewMerger()

	cfg, err := m.Merge(Input{
		Draft: &models.AgentDraft{ConversationFlow: &models.ConversationFlow{Nodes: []models.FlowNode{
			{NodeID: "node_api_x", Type: models.NodeAPICall, FunctionCall: "missing_fn",
				Transitions: []models.FlowTransition{{Condition: "api_response_received", TargetNodeID: "node_end"}}},
			{NodeID: "node_end", Type: models.NodeEnd},
		}}},
		Functions: []models.FunctionDefinition{{Name: "get_order_status"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "get_order_status", cfg.ConversationFlow.Nodes[0].FunctionCall)
}

func TestMerge_DoesNotAliasDraft(t *testing.T) {
	in := ruleInput(appointmentPrompt)
	cfg, err := NewMerger().Merge(in)
	require.NoError(t, err)

	cfg.Persona.PersonalityTraits[0] = "grumpy"
	cfg.ConversationFlow.Nodes[0].Transitions[0].TargetNodeID = "elsewhere"

	assert.Equal(t, "friendly", in.Draft.Persona.PersonalityTraits[0])
	assert.NotEqual(t, "elsewhere", in.Draft.ConversationFlow.Nodes[0].Transitions[0].TargetNodeID)
}

func TestMerge_MalformedDraft(t *testing.T) {
	validFlow := func(nodes ...models.FlowNode) *models.AgentDraft {
		return &models.AgentDraft{ConversationFlow: &models.ConversationFlow{Nodes: nodes}}
	}

	tests := []struct {
		name string
		in   Input
	}{
		{name: "missing draft", in: Input{}},
		{name: "intent without name", in: Input{Draft: &models.AgentDraft{Intents: []models.IntentDefinition{{Priority: 3}}}}},
		{name: "function without name", in: Input{Draft: &models.AgentDraft{}, Functions: []models.FunctionDefinition{{Description: "x"}}}},
		{name: "node without id", in: Input{Draft: validFlow(models.FlowNode{Type: models.NodeEnd})}},
		{name: "transition without target", in: Input{Draft: validFlow(models.FlowNode{
			NodeID: "node_greet", Transitions: []models.FlowTransition{{Condition: "user_responds"}},
		})}},
		{name: "transition without condition", in: Input{Draft: validFlow(models.FlowNode{
			NodeID: "node_greet", Transitions: []models.FlowTransition{{TargetNodeID: "node_end"}},
		})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewMerger().Merge(tt.in)
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, ErrMalformedDraft), "got %v", err)
		})
	}
}
