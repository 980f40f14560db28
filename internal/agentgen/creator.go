// internal/agentgen/creator.go
package agentgen

import "cx-agent-builder/internal/models"

// Create builds the agent draft (persona, voice, intents and flow) for a
// brief. The api_call nodes reference the brief's required functions.
func Create(brief *models.AnalysisBrief) *models.AgentDraft {
	if brief == nil {
		brief = &models.AnalysisBrief{}
	}

	persona := BuildPersona(brief)

	functionNames := make([]string, 0, len(brief.FunctionsNeeded))
	for _, fn := range brief.FunctionsNeeded {
		functionNames = append(functionNames, fn.Name)
	}

	return &models.AgentDraft{
		Persona:          persona,
		Voice:            BuildVoice(brief),
		Intents:          BuildIntents(brief),
		ConversationFlow: BuildFlow(brief, persona.GreetingMessage, functionNames),
	}
}
