// internal/analysis/persona.go
package analysis

import "strings"

const (
	StyleWarm   = "warm"
	StyleFormal = "formal"
	StyleCasual = "casual"

	GenderFemale = "female"
	GenderMale   = "male"
)

// PersonaCues are the persona hints read from the request text.
type PersonaCues struct {
	Name   string
	Role   string
	Style  string
	Traits []string
	Gender string
}

// DetectPersona derives name, role, greeting style, traits and voice gender
// for a domain from the request text.
func DetectPersona(text, domain string) PersonaCues {
	lower := strings.ToLower(text)
	style, traits := detectStyle(lower)
	return PersonaCues{
		Name:   AgentName(domain),
		Role:   AgentRole(domain),
		Style:  style,
		Traits: traits,
		Gender: detectGender(lower),
	}
}

// AgentName returns the suggested agent name for a domain.
func AgentName(domain string) string {
	if name, ok := lookup(agentNames, domain); ok {
		return name
	}
	return DefaultAgentName
}

// AgentRole returns "<Domain> <role>", e.g. "Healthcare Appointment & Patient
// Support Agent".
func AgentRole(domain string) string {
	role, ok := lookup(domainRoles, domain)
	if !ok {
		role = DefaultDomainRole
	}
	return TitleCase(domain) + " " + role
}

func detectStyle(lower string) (string, []string) {
	switch {
	case strings.Contains(lower, "formal"):
		return StyleFormal, []string{"professional", "courteous", "precise"}
	case strings.Contains(lower, "casual"), strings.Contains(lower, "friendly"):
		return StyleCasual, []string{"friendly", "upbeat", "approachable"}
	default:
		return StyleWarm, []string{"friendly", "professional", "helpful"}
	}
}

// "female voice" contains "male voice", so the female phrases are checked first.
func detectGender(lower string) string {
	if containsAny(lower, []string{"female voice", "female agent"}) {
		return GenderFemale
	}
	if containsAny(lower, []string{"male voice", "male agent"}) {
		return GenderMale
	}
	return GenderFemale
}
