// internal/analysis/requirements.go
package analysis

import (
	"fmt"
	"strings"

	"cx-agent-builder/internal/models"
)

const fallbackFunctionName = "perform_action"

// DeriveRequirements produces one FunctionRequirement for every task that
// calls an API.
func DeriveRequirements(tasks []models.Task) []models.FunctionRequirement {
	reqs := make([]models.FunctionRequirement, 0, len(tasks))
	for _, task := range tasks {
		if !task.RequiresAPI {
			continue
		}

		name := FunctionNameForTask(task.TaskName)
		params := make([]models.RequirementParam, 0, len(task.DataToCollect))
		for _, slot := range task.DataToCollect {
			params = append(params, models.RequirementParam{
				Name:        slot,
				Type:        ParamType(slot),
				Description: fmt.Sprintf("The customer's %s", Readable(slot)),
			})
		}

		purpose := task.APIDescription
		if purpose == "" {
			purpose = task.Description
		}

		reqs = append(reqs, models.FunctionRequirement{
			Name:           name,
			Purpose:        purpose,
			InputParams:    params,
			ExpectedOutput: ExpectedOutput(name),
		})
	}
	return reqs
}

// FunctionNameForTask maps a task name to the function it calls.
func FunctionNameForTask(taskName string) string {
	key := TaskKey(taskName)
	if name, ok := lookup(taskFunctionNames, key); ok {
		return name
	}
	if key == "" {
		return fallbackFunctionName
	}
	return key
}

// ExpectedOutput describes what a known function returns.
func ExpectedOutput(functionName string) string {
	if out, ok := lookup(functionOutputs, functionName); ok {
		return out
	}
	return DefaultExpectedOutput
}

// ParamType infers a JSON type from a slot name.
func ParamType(slot string) string {
	lower := strings.ToLower(slot)
	switch {
	case strings.Contains(lower, "date"):
		return "string"
	case strings.Contains(lower, "number"), strings.Contains(lower, "amount"):
		return "string"
	case strings.Contains(lower, "count"), strings.Contains(lower, "quantity"):
		return "integer"
	default:
		return "string"
	}
}
