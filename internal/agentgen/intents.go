// internal/agentgen/intents.go
package agentgen

import (
	"fmt"
	"strings"

	"cx-agent-builder/internal/analysis"
	"cx-agent-builder/internal/models"
)

const (
	IntentGreeting     = "greeting"
	IntentFallback     = "fallback"
	IntentHumanAgent   = "request_human_agent"
	taskIntentPrefix   = "request_"
	greetingPriority   = 5
	taskPriority       = 3
	fallbackPriority   = 0
	humanAgentPriority = 8
)

// TaskIntentName is the intent a caller triggers to start a task.
func TaskIntentName(taskName string) string {
	return taskIntentPrefix + analysis.TaskKey(taskName)
}

// BuildIntents returns the greeting intent, one intent per task, and the
// fallback and human-agent intents. Training phrases carry the brief language.
func BuildIntents(brief *models.AnalysisBrief) []models.IntentDefinition {
	language := orDefault(brief.Language, models.DefaultLanguage)
	phrases := func(texts ...string) []models.TrainingPhrase {
		out := make([]models.TrainingPhrase, len(texts))
		for i, t := range texts {
			out[i] = models.TrainingPhrase{Text: t, Language: language}
		}
		return out
	}

	intents := make([]models.IntentDefinition, 0, len(brief.Tasks)+3)
	intents = append(intents, models.IntentDefinition{
		Name:            IntentGreeting,
		Description:     "Caller greets the agent or starts the conversation",
		TrainingPhrases: phrases("Hello", "Hi there", "Good morning", "Hey", "I need help"),
		Priority:        greetingPriority,
	})

	for _, task := range brief.Tasks {
		desc := strings.ToLower(task.Description)
		intents = append(intents, models.IntentDefinition{
			Name:        TaskIntentName(task.TaskName),
			Description: fmt.Sprintf("Caller wants to: %s", task.Description),
			TrainingPhrases: phrases(
				fmt.Sprintf("I want to %s", desc),
				fmt.Sprintf("Can you help me %s", desc),
				fmt.Sprintf("I need to %s", strings.ToLower(task.TaskName)),
				fmt.Sprintf("Please %s", desc),
			),
			Priority: taskPriority,
		})
	}

	intents = append(intents,
		models.IntentDefinition{
			Name:            IntentFallback,
			Description:     "Caller's request is not understood",
			TrainingPhrases: []models.TrainingPhrase{},
			Priority:        fallbackPriority,
		},
		models.IntentDefinition{
			Name:        IntentHumanAgent,
			Description: "Caller wants to speak with a human",
			TrainingPhrases: phrases(
				"I want to talk to a person",
				"Transfer me to a human",
				"Can I speak with someone",
				"Let me talk to a real person",
			),
			Priority: humanAgentPriority,
		},
	)
	return intents
}
