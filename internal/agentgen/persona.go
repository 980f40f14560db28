// internal/agentgen/persona.go
package agentgen

import (
	"fmt"
	"strings"

	"cx-agent-builder/internal/analysis"
	"cx-agent-builder/internal/models"
)

const (
	DefaultMaxRetries = 3

	FallbackMessage   = "I'm sorry, I didn't quite catch that. Could you please repeat what you said?"
	EscalationMessage = "I appreciate your patience. Let me connect you with a team member who can help you further. Please hold for just a moment."

	defaultRole   = "Customer Support Assistant"
	defaultDomain = "general"
)

var defaultTraits = []string{"friendly", "professional", "helpful"}

var conversationGuidelines = []string{
	"Always greet the caller warmly and introduce yourself by name.",
	"Confirm information back to the caller before proceeding.",
	"If you don't understand something, politely ask for clarification.",
	"If you cannot help with a request, offer to transfer to a human agent.",
	"End every call by asking if there's anything else you can help with.",
}

var errorHandlingRules = []string{
	"If an API call fails, apologize and offer to try again or escalate.",
	fmt.Sprintf("After %d failed attempts to understand, escalate to a human.", DefaultMaxRetries),
	"Never make up information. Only state what you know or can look up.",
}

// BuildPersona assembles the persona, system prompt and greeting for a brief.
func BuildPersona(brief *models.AnalysisBrief) models.PersonaConfig {
	name := orDefault(brief.AgentNameSuggestion, analysis.DefaultAgentName)
	role := orDefault(brief.AgentRole, defaultRole)
	style := orDefault(brief.GreetingStyle, analysis.StyleWarm)
	traits := brief.PersonalityTraits
	if len(traits) == 0 {
		traits = defaultTraits
	}
	traits = append([]string(nil), traits...)

	return models.PersonaConfig{
		Name:              name,
		Role:              role,
		PersonalityTraits: traits,
		GreetingStyle:     style,
		SystemPrompt:      systemPrompt(name, role, orDefault(brief.Domain, defaultDomain), traits, brief.Tasks),
		GreetingMessage:   GreetingMessage(style, name, role),
		FallbackMessage:   FallbackMessage,
		EscalationMessage: EscalationMessage,
		MaxRetries:        DefaultMaxRetries,
	}
}

// GreetingMessage returns the opening line for a greeting style. Unknown
// styles use the warm greeting.
func GreetingMessage(style, name, role string) string {
	switch style {
	case analysis.StyleFormal:
		return fmt.Sprintf("Good day. This is %s, your %s. How may I assist you today?", name, role)
	case analysis.StyleCasual:
		return fmt.Sprintf("Hey there! I'm %s. What can I help you with today?", name)
	default:
		return fmt.Sprintf("Hello! Thank you for calling. My name is %s, and I'm here to help you today. How can I assist you?", name)
	}
}

func systemPrompt(name, role, domain string, traits []string, tasks []models.Task) string {
	traitList := strings.Join(traits, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s %s specializing in %s. ", name, traitList, role, domain)
	b.WriteString("You handle phone conversations with customers and your primary tasks are:\n")
	for i, task := range tasks {
		fmt.Fprintf(&b, "\n%d. **%s**: %s", i+1, orDefault(task.TaskName, "Task"), task.Description)
		if len(task.DataToCollect) > 0 {
			fmt.Fprintf(&b, "\n   - Collect: %s", strings.Join(task.DataToCollect, ", "))
		}
		if task.RequiresAPI {
			fmt.Fprintf(&b, "\n   - API Integration: %s", orDefault(task.APIDescription, "External API call"))
		}
	}

	b.WriteString("\n\n## Conversation Guidelines\n")
	writeBullets(&b, conversationGuidelines)
	b.WriteString("\n## Error Handling\n")
	writeBullets(&b, errorHandlingRules)
	b.WriteString("\n## Tone\n")
	writeBullets(&b, []string{
		fmt.Sprintf("You are %s.", traitList),
		"Use the caller's name once you have it to personalize the experience.",
	})
	return strings.TrimRight(b.String(), "\n")
}

func writeBullets(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
