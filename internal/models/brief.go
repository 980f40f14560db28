// internal/models/brief.go
package models

// AnalysisBrief is the structured requirements record extracted from a
// free-text agent request. It is produced once per request and only read
// afterwards.
type AnalysisBrief struct {
	Domain              string                `json:"domain"`
	AgentNameSuggestion string                `json:"agent_name_suggestion"`
	AgentRole           string                `json:"agent_role"`
	PersonalityTraits   []string              `json:"personality_traits"`
	GreetingStyle       string                `json:"greeting_style"`
	Language            string                `json:"language"`
	VoiceGender         string                `json:"voice_gender"`
	Tasks               []Task                `json:"tasks"`
	FunctionsNeeded     []FunctionRequirement `json:"functions_needed"`
	FlowSummary         []string              `json:"flow_summary"`
	Ambiguities         []string              `json:"ambiguities"`
	Platform            string                `json:"platform"`
	UserRequestedSlots  []string              `json:"user_requested_slots"`
}

// Task is one job the generated agent performs on a call.
type Task struct {
	TaskName       string   `json:"task_name"`
	Description    string   `json:"description"`
	DataToCollect  []string `json:"data_to_collect"`
	RequiresAPI    bool     `json:"requires_api"`
	APIDescription string   `json:"api_description"`
}

// HasSlot reports whether the task already collects slot.
func (t Task) HasSlot(slot string) bool {
	for _, s := range t.DataToCollect {
		if s == slot {
			return true
		}
	}
	return false
}

// FunctionRequirement describes a backend call a task needs before it is
// materialized into a FunctionDefinition.
type FunctionRequirement struct {
	Name           string             `json:"name"`
	Purpose        string             `json:"purpose"`
	InputParams    []RequirementParam `json:"input_params"`
	ExpectedOutput string             `json:"expected_output"`
}

// RequirementParam is a parameter as stated in a requirement. Required,
// Default and Enum are usually absent and defaulted when the function is
// built.
type RequirementParam struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    *bool       `json:"required,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
}

// Clone returns a deep copy so callers can adjust a brief without touching
// one that is shared.
func (b *AnalysisBrief) Clone() *AnalysisBrief {
	if b == nil {
		return nil
	}
	out := *b
	out.PersonalityTraits = append([]string(nil), b.PersonalityTraits...)
	out.FlowSummary = append([]string(nil), b.FlowSummary...)
	out.Ambiguities = append([]string(nil), b.Ambiguities...)
	out.UserRequestedSlots = append([]string(nil), b.UserRequestedSlots...)

	out.Tasks = make([]Task, len(b.Tasks))
	for i, t := range b.Tasks {
		t.DataToCollect = append([]string(nil), t.DataToCollect...)
		out.Tasks[i] = t
	}

	out.FunctionsNeeded = make([]FunctionRequirement, len(b.FunctionsNeeded))
	for i, f := range b.FunctionsNeeded {
		f.InputParams = append([]RequirementParam(nil), f.InputParams...)
		out.FunctionsNeeded[i] = f
	}
	return &out
}
