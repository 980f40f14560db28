package createfunctions

import (
	"cx-agent-builder/internal/models"

	"github.com/sashabaranov/go-openai"
)

type Input struct {
	AnalysisBrief *models.AnalysisBrief `json:"analysisBrief"`
}

type Output struct {
	Functions         []models.FunctionDefinition `json:"functions"`
	OpenAIToolsSchema []openai.Tool               `json:"openaiToolsSchema"`
	FunctionCount     int                         `json:"functionCount"`
}
