// internal/analysis/analyzer.go
package analysis

import "cx-agent-builder/internal/models"

// Analyze runs the keyword rules over a request and returns its brief. It is
// pure and never fails; empty language or platform are stored as given.
func Analyze(text, language, platform string) *models.AnalysisBrief {
	domain := DetectDomain(text)
	slots := ExtractSlots(text)
	tasks := MergeSlots(DetectTasks(text, domain), slots)
	persona := DetectPersona(text, domain)

	ambiguities := []string{}
	if domain == DefaultDomain {
		ambiguities = append(ambiguities, "No business domain recognised; using general support defaults")
	}

	return &models.AnalysisBrief{
		Domain:              domain,
		AgentNameSuggestion: persona.Name,
		AgentRole:           persona.Role,
		PersonalityTraits:   persona.Traits,
		GreetingStyle:       persona.Style,
		Language:            language,
		VoiceGender:         persona.Gender,
		Tasks:               tasks,
		FunctionsNeeded:     DeriveRequirements(tasks),
		FlowSummary:         FlowSummary(tasks),
		Ambiguities:         ambiguities,
		Platform:            platform,
		UserRequestedSlots:  slots,
	}
}
