package createagentconfig

import "cx-agent-builder/internal/models"

type Input struct {
	AnalysisBrief *models.AnalysisBrief `json:"analysisBrief"`
}

type Output struct {
	AgentDraft  *models.AgentDraft `json:"agentDraft"`
	IntentCount int                `json:"intentCount"`
	NodeCount   int                `json:"nodeCount"`
}
