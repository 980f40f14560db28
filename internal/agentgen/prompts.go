// internal/agentgen/prompts.go
package agentgen

import (
	"fmt"
	"strings"

	"cx-agent-builder/internal/analysis"
)

var slotPrompts = []struct {
	slot   string
	prompt string
}{
	{"name", "Could I please have your name?"},
	{"customer_name", "Could I please have your name?"},
	{"full_name", "May I have your full name, please?"},
	{"first_name", "What's your first name?"},
	{"date", "What date works best for you?"},
	{"appointment_date", "What date would you like to schedule your appointment?"},
	{"preferred_date", "When would you prefer to come in?"},
	{"time", "And what time would you prefer?"},
	{"appointment_time", "What time would you like your appointment?"},
	{"preferred_time", "What time works best for you?"},
	{"email", "Could you provide your email address?"},
	{"phone", "What's the best phone number to reach you at?"},
	{"phone_number", "What's the best phone number to reach you at?"},
	{"service", "What type of service are you looking for?"},
	{"service_type", "What type of service do you need?"},
	{"reason", "Could you tell me the reason for your visit?"},
	{"location", "Which location would you prefer?"},
	{"order_number", "Could you provide your order number?"},
	{"account_number", "What's your account number?"},
	{"issue", "Could you describe the issue you're experiencing?"},
	{"product", "Which product are you inquiring about?"},
}

// SlotPrompt returns the question the agent asks to fill slot.
func SlotPrompt(slot string) string {
	lower := strings.ToLower(slot)
	for _, p := range slotPrompts {
		if p.slot == lower {
			return p.prompt
		}
	}
	return fmt.Sprintf("Could you please provide your %s?", analysis.Readable(slot))
}
