// internal/functions/tools.go
package functions

import (
	"cx-agent-builder/internal/models"

	"github.com/sashabaranov/go-openai"
)

// ToolParameters is the JSON schema object placed in a tool's "parameters".
// Required is always emitted, even when empty.
type ToolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required"`
}

type ToolProperty struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Enum        []string    `json:"enum,omitempty"`
	Default     interface{} `json:"default,omitempty"`
}

// ToOpenAITools converts function definitions into OpenAI function-calling
// tool schemas, one per definition.
func ToOpenAITools(defs []models.FunctionDefinition) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		params := ToolParameters{
			Type:       "object",
			Properties: make(map[string]ToolProperty, len(def.Parameters)),
			Required:   []string{},
		}
		for _, p := range def.Parameters {
			paramType := p.Type
			if paramType == "" {
				paramType = defaultParamType
			}
			params.Properties[p.Name] = ToolProperty{
				Type:        paramType,
				Description: p.Description,
				Enum:        p.Enum,
				Default:     p.Default,
			}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}

		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}
