// internal/analysis/slots.go
package analysis

import (
	"strings"

	"cx-agent-builder/internal/models"
)

// ExtractSlots returns the canonical slots mentioned in text, each at most
// once and in table order.
func ExtractSlots(text string) []string {
	lower := strings.ToLower(text)
	slots := make([]string, 0, len(slotRules))
	for _, rule := range slotRules {
		if containsAny(lower, rule.keywords) {
			slots = append(slots, rule.key)
		}
	}
	return slots
}

// MergeSlots attaches slots to the primary task and returns the updated task
// list. The primary task is the first one that calls an API, otherwise the
// first non-greeting task. If neither exists a "Collect Customer Information"
// task is added. Slots already on the task keep their position.
func MergeSlots(tasks []models.Task, slots []string) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	if len(slots) == 0 {
		return out
	}

	idx := primaryTaskIndex(out)
	if idx < 0 {
		return append(out, models.Task{
			TaskName:       CollectInfoTaskName,
			Description:    "Collect customer details for the interaction",
			DataToCollect:  uniqueSlots(slots),
			RequiresAPI:    true,
			APIDescription: "Store or process collected customer information",
		})
	}

	primary := &out[idx]
	for _, slot := range slots {
		if !primary.HasSlot(slot) {
			primary.DataToCollect = append(primary.DataToCollect, slot)
		}
	}
	return out
}

func primaryTaskIndex(tasks []models.Task) int {
	for i, t := range tasks {
		if t.RequiresAPI {
			return i
		}
	}
	for i, t := range tasks {
		if t.TaskName != GreetingTaskName {
			return i
		}
	}
	return -1
}

func uniqueSlots(slots []string) []string {
	seen := make(map[string]bool, len(slots))
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
