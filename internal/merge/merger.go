// internal/merge/merger.go
package merge

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cx-agent-builder/internal/models"

	"github.com/google/uuid"
)

var ErrMalformedDraft = errors.New("MALFORMED_DRAFT")

const (
	ConfigVersion = "1.0.0"

	defaultPersonaName       = "Ava"
	defaultPersonaRole       = "Customer Support Agent"
	defaultGreetingStyle     = "warm"
	defaultSystemPrompt      = "You are a helpful agent."
	defaultFallbackMessage   = "I didn't catch that."
	defaultEscalationMessage = "Let me transfer you."
	defaultMaxRetries        = 3

	defaultVoiceProvider = "google"
	defaultVoiceID       = "en-US-Neural2-F"
	defaultVoiceGender   = "female"
	defaultSpeakingRate  = 1.0

	defaultEndpointURL     = "/api/v1/action"
	defaultEndpointTimeout = 10

	defaultFlowName  = "main_flow"
	defaultEntryNode = "node_greet"

	defaultEnvironment        = "staging"
	defaultMaxConcurrentCalls = 10
)

// idNamespace scopes the UUIDv5 ids generated for agent configurations.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cx-agent-builder/agents"))

// Input is everything the merger assembles into one configuration.
type Input struct {
	Brief     *models.AnalysisBrief
	Draft     *models.AgentDraft
	Functions []models.FunctionDefinition

	// Prompt, Language and Platform identify the request and seed the ids.
	Prompt   string
	Language string
	Platform string
	Mode     string
}

type Merger struct {
	now func() time.Time
}

type Option func(*Merger)

// WithClock replaces the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) { m.now = now }
}

func NewMerger(opts ...Option) *Merger {
	m := &Merger{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge assembles the final configuration, substituting defaults for missing
// fields. It fails only when a draft entry lacks an identifier.
func (m *Merger) Merge(in Input) (*models.CXAgentConfig, error) {
	if in.Draft == nil {
		return nil, fmt.Errorf("%w: agent draft is missing", ErrMalformedDraft)
	}
	if err := checkDraft(in.Draft, in.Functions); err != nil {
		return nil, err
	}

	ids := idSource{seed: strings.Join([]string{in.Prompt, in.Language, in.Platform}, "|")}
	domain := ""
	if in.Brief != nil {
		domain = in.Brief.Domain
	}
	platform := in.Platform
	if platform == "" {
		platform = models.DefaultPlatform
	}

	functions := mergeFunctions(in.Functions, ids)
	return &models.CXAgentConfig{
		AgentID:          "agent_" + ids.hex("agent", 12),
		Version:          ConfigVersion,
		Status:           models.StatusDraft,
		CreatedAt:        m.now().UTC().Format(time.RFC3339),
		Persona:          mergePersona(in.Draft.Persona),
		Voice:            mergeVoice(in.Draft.Voice),
		Intents:          mergeIntents(in.Draft.Intents, ids),
		Functions:        functions,
		ConversationFlow: mergeFlow(in.Draft.ConversationFlow, functions, ids),
		Deployment: models.DeploymentConfig{
			Platform:           platform,
			Environment:        defaultEnvironment,
			MaxConcurrentCalls: defaultMaxConcurrentCalls,
			RecordingEnabled:   true,
			AnalyticsEnabled:   true,
		},
		Metadata: map[string]interface{}{
			"source_prompt":   domain,
			"generation_mode": in.Mode,
		},
	}, nil
}

func checkDraft(draft *models.AgentDraft, functions []models.FunctionDefinition) error {
	for i, intent := range draft.Intents {
		if intent.Name == "" {
			return fmt.Errorf("%w: intent %d has no name", ErrMalformedDraft, i)
		}
	}
	for i, fn := range functions {
		if fn.Name == "" {
			return fmt.Errorf("%w: function %d has no name", ErrMalformedDraft, i)
		}
	}
	if draft.ConversationFlow == nil {
		return nil
	}
	for i, node := range draft.ConversationFlow.Nodes {
		if node.NodeID == "" {
			return fmt.Errorf("%w: flow node %d has no node_id", ErrMalformedDraft, i)
		}
		for j, tr := range node.Transitions {
			if tr.Condition == "" || tr.TargetNodeID == "" {
				return fmt.Errorf("%w: transition %d of %s is incomplete", ErrMalformedDraft, j, node.NodeID)
			}
		}
	}
	return nil
}

type idSource struct {
	seed string
}

func (s idSource) hex(kind string, n int) string {
	id := uuid.NewSHA1(idNamespace, []byte(s.seed+"|"+kind))
	return strings.ReplaceAll(id.String(), "-", "")[:n]
}

func mergePersona(p models.PersonaConfig) models.PersonaConfig {
	out := p
	out.Name = orDefault(p.Name, defaultPersonaName)
	out.Role = orDefault(p.Role, defaultPersonaRole)
	out.GreetingStyle = orDefault(p.GreetingStyle, defaultGreetingStyle)
	out.SystemPrompt = orDefault(p.SystemPrompt, defaultSystemPrompt)
	out.FallbackMessage = orDefault(p.FallbackMessage, defaultFallbackMessage)
	out.EscalationMessage = orDefault(p.EscalationMessage, defaultEscalationMessage)
	if len(p.PersonalityTraits) == 0 {
		out.PersonalityTraits = []string{"friendly"}
	} else {
		out.PersonalityTraits = append([]string(nil), p.PersonalityTraits...)
	}
	if p.MaxRetries <= 0 {
		out.MaxRetries = defaultMaxRetries
	}
	return out
}

func mergeVoice(v models.VoiceConfig) models.VoiceConfig {
	out := v
	out.Provider = orDefault(v.Provider, defaultVoiceProvider)
	out.VoiceID = orDefault(v.VoiceID, defaultVoiceID)
	out.Gender = orDefault(v.Gender, defaultVoiceGender)
	out.Language = orDefault(v.Language, models.DefaultLanguage)
	if v.SpeakingRate <= 0 {
		out.SpeakingRate = defaultSpeakingRate
	}
	return out
}

func mergeIntents(intents []models.IntentDefinition, ids idSource) []models.IntentDefinition {
	out := make([]models.IntentDefinition, 0, len(intents))
	for i, intent := range intents {
		phrases := make([]models.TrainingPhrase, 0, len(intent.TrainingPhrases))
		for _, p := range intent.TrainingPhrases {
			p.Language = orDefault(p.Language, models.DefaultLanguage)
			phrases = append(phrases, p)
		}
		intent.TrainingPhrases = phrases
		intent.IntentID = "intent_" + ids.hex(fmt.Sprintf("intent/%d/%s", i, intent.Name), 8)
		out = append(out, intent)
	}
	return out
}

func mergeFunctions(functions []models.FunctionDefinition, ids idSource) []models.FunctionDefinition {
	out := make([]models.FunctionDefinition, 0, len(functions))
	for i, fn := range functions {
		params := make([]models.FunctionParameter, 0, len(fn.Parameters))
		for _, p := range fn.Parameters {
			if p.Type == "" {
				p.Type = "string"
			}
			params = append(params, p)
		}
		fn.Parameters = params

		if fn.APIEndpoint != nil {
			ep := *fn.APIEndpoint
			ep.URL = orDefault(ep.URL, defaultEndpointURL)
			ep.Method = orDefault(ep.Method, http.MethodPost)
			if len(ep.Headers) == 0 {
				ep.Headers = map[string]string{"Content-Type": "application/json"}
			}
			if ep.TimeoutSeconds <= 0 {
				ep.TimeoutSeconds = defaultEndpointTimeout
			}
			fn.APIEndpoint = &ep
		}
		fn.FunctionID = "fn_" + ids.hex(fmt.Sprintf("function/%d/%s", i, fn.Name), 8)
		out = append(out, fn)
	}
	return out
}

// mergeFlow copies the flow with defaults applied. An api_call node whose
// function is not in the catalogue is pointed at the first catalogue entry.
func mergeFlow(flow *models.ConversationFlow, functions []models.FunctionDefinition, ids idSource) *models.ConversationFlow {
	if flow == nil {
		return nil
	}

	known := make(map[string]bool, len(functions))
	for _, fn := range functions {
		known[fn.Name] = true
	}

	nodes := make([]models.FlowNode, 0, len(flow.Nodes))
	for _, n := range flow.Nodes {
		if n.Type == "" {
			n.Type = models.NodeResponse
		}
		if n.Type == models.NodeAPICall && !known[n.FunctionCall] && len(functions) > 0 {
			n.FunctionCall = functions[0].Name
		}
		n.Transitions = append([]models.FlowTransition{}, n.Transitions...)
		nodes = append(nodes, n)
	}

	return &models.ConversationFlow{
		FlowID:      "flow_" + ids.hex("flow", 8),
		Name:        orDefault(flow.Name, defaultFlowName),
		Description: flow.Description,
		EntryNodeID: orDefault(flow.EntryNodeID, defaultEntryNode),
		Nodes:       nodes,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
