// internal/analysis/summary.go
package analysis

import (
	"fmt"

	"cx-agent-builder/internal/models"
)

// FlowSummary lists the conversation steps in plain language.
func FlowSummary(tasks []models.Task) []string {
	steps := []string{"Step 1: Greet the caller and introduce the service"}
	add := func(text string) {
		steps = append(steps, fmt.Sprintf("Step %d: %s", len(steps)+1, text))
	}

	for _, task := range tasks {
		if task.TaskName == GreetingTaskName {
			continue
		}
		for _, slot := range task.DataToCollect {
			add(fmt.Sprintf("Ask for the customer's %s", Readable(slot)))
		}
		if task.RequiresAPI {
			add(task.APIDescription)
			add("Communicate the result to the caller")
		}
	}

	add("Ask if there's anything else")
	add("End the call politely")
	return steps
}
