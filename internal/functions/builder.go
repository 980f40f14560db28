// internal/functions/builder.go
package functions

import (
	"fmt"
	"strings"

	"cx-agent-builder/internal/models"
)

const (
	defaultName           = "unknown_function"
	defaultPurpose        = "Perform an action"
	defaultExpectedOutput = "JSON response"
	defaultParamName      = "param"
	defaultParamType      = "string"
)

// Build materializes a requirement into a callable function definition.
// Missing fields are replaced with literal defaults; Build never fails.
func Build(req models.FunctionRequirement) models.FunctionDefinition {
	name := orDefault(req.Name, defaultName)
	purpose := orDefault(req.Purpose, defaultPurpose)
	expected := orDefault(req.ExpectedOutput, defaultExpectedOutput)

	params := make([]models.FunctionParameter, 0, len(req.InputParams))
	for _, p := range req.InputParams {
		paramName := orDefault(p.Name, defaultParamName)
		params = append(params, models.FunctionParameter{
			Name:        paramName,
			Type:        orDefault(p.Type, defaultParamType),
			Description: orDefault(p.Description, fmt.Sprintf("The %s value", paramName)),
			Required:    p.Required == nil || *p.Required,
			Default:     p.Default,
			Enum:        p.Enum,
		})
	}

	method := InferMethod(name, purpose)
	return models.FunctionDefinition{
		Name: name,
		Description: fmt.Sprintf(
			"%s. This function is called during the conversation when the agent needs to %s. Returns: %s",
			purpose, strings.ToLower(purpose), expected),
		Parameters:         params,
		ReturnsDescription: expected,
		APIEndpoint:        BuildEndpoint(name, method, params),
		MockResponse:       MockResponse(name),
	}
}

// BuildAll builds one definition per requirement, in order.
func BuildAll(reqs []models.FunctionRequirement) []models.FunctionDefinition {
	defs := make([]models.FunctionDefinition, 0, len(reqs))
	for _, r := range reqs {
		defs = append(defs, Build(r))
	}
	return defs
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
