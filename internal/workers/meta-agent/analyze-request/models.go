package analyzerequest

import "cx-agent-builder/internal/models"

type Input struct {
	UserPrompt string `json:"userPrompt"`
	Language   string `json:"language,omitempty"`
	Platform   string `json:"platform,omitempty"`
}

type Output struct {
	AnalysisBrief  *models.AnalysisBrief `json:"analysisBrief"`
	Language       string                `json:"language"`
	Platform       string                `json:"platform"`
	GenerationMode string                `json:"generationMode"`
}
