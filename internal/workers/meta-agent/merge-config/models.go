package mergeconfig

import "cx-agent-builder/internal/models"

type Input struct {
	UserPrompt     string                      `json:"userPrompt"`
	Language       string                      `json:"language,omitempty"`
	Platform       string                      `json:"platform,omitempty"`
	GenerationMode string                      `json:"generationMode,omitempty"`
	AnalysisBrief  *models.AnalysisBrief       `json:"analysisBrief"`
	AgentDraft     *models.AgentDraft          `json:"agentDraft"`
	Functions      []models.FunctionDefinition `json:"functions"`
}

type Output struct {
	AgentConfig *models.CXAgentConfig `json:"agentConfig"`
	AgentID     string                `json:"agentId"`
	Message     string                `json:"message"`
}
