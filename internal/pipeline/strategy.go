// internal/pipeline/strategy.go
package pipeline

import (
	"context"

	"cx-agent-builder/internal/agentgen"
	"cx-agent-builder/internal/analysis"
	"cx-agent-builder/internal/functions"
	"cx-agent-builder/internal/models"
)

const (
	ModeRuleBased = "rule_based"
	ModeLLM       = "llm"
)

// Strategy produces the output of each generation stage. It is chosen once
// when the pipeline is built.
type Strategy interface {
	Mode() string
	Analyze(ctx context.Context, prompt, language, platform string) (*models.AnalysisBrief, error)
	CreateAgent(ctx context.Context, brief *models.AnalysisBrief) (*models.AgentDraft, error)
	CreateFunctions(ctx context.Context, reqs []models.FunctionRequirement) ([]models.FunctionDefinition, error)
}

// RuleStrategy runs the deterministic keyword engine. It needs no external
// services and never fails.
type RuleStrategy struct{}

func NewRuleStrategy() *RuleStrategy { return &RuleStrategy{} }

func (RuleStrategy) Mode() string { return ModeRuleBased }

func (RuleStrategy) Analyze(_ context.Context, prompt, language, platform string) (*models.AnalysisBrief, error) {
	return analysis.Analyze(prompt, language, platform), nil
}

func (RuleStrategy) CreateAgent(_ context.Context, brief *models.AnalysisBrief) (*models.AgentDraft, error) {
	return agentgen.Create(brief), nil
}

func (RuleStrategy) CreateFunctions(_ context.Context, reqs []models.FunctionRequirement) ([]models.FunctionDefinition, error) {
	return functions.BuildAll(reqs), nil
}
