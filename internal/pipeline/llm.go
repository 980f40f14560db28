// internal/pipeline/llm.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cx-agent-builder/internal/analysis"
	"cx-agent-builder/internal/common/config"
	commonhttp "cx-agent-builder/internal/common/http"
	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/common/metrics"
	"cx-agent-builder/internal/common/validation"
	"cx-agent-builder/internal/models"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrLLMTimeout    = errors.New("LLM_TIMEOUT")
	ErrLLMGeneration = errors.New("LLM_GENERATION_FAILED")
)

const (
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 60 * time.Second

	defaultTemperature = 0.3
	defaultMaxTokens   = 3000

	// The agent stage writes the long system prompt and the whole flow.
	agentTemperature = 0.4
	agentMaxTokens   = 4000
)

// ChatCompleter is the part of the OpenAI client the strategy uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type stageParams struct {
	temperature float32
	maxTokens   int
}

// LLMStrategy asks a chat model for each stage and runs the rule engine for
// any stage whose call fails or whose reply cannot be used. Calls are not
// retried.
type LLMStrategy struct {
	client   ChatCompleter
	model    string
	timeout  time.Duration
	general  stageParams
	agent    stageParams
	fallback *RuleStrategy
	logger   logger.Logger
}

func NewLLMStrategy(client ChatCompleter, cfg config.LLMConfig, log logger.Logger) *LLMStrategy {
	s := &LLMStrategy{
		client:   client,
		model:    cfg.Model,
		timeout:  time.Duration(cfg.Timeout) * time.Millisecond,
		general:  stageParams{temperature: float32(cfg.Temperature), maxTokens: cfg.MaxTokens},
		agent:    stageParams{temperature: agentTemperature, maxTokens: agentMaxTokens},
		fallback: NewRuleStrategy(),
		logger:   logger.ForComponent(log, "llm-strategy"),
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.general.temperature <= 0 {
		s.general.temperature = defaultTemperature
	}
	if s.general.maxTokens <= 0 {
		s.general.maxTokens = defaultMaxTokens
	}
	return s
}

// NewOpenAIClient builds a client whose requests go through the logging
// HTTP client.
func NewOpenAIClient(cfg config.LLMConfig, log logger.Logger) *openai.Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	oc.HTTPClient = commonhttp.NewClient(timeout, commonhttp.WithLogger(logger.ForComponent(log, "openai")))
	return openai.NewClientWithConfig(oc)
}

// NewStrategy returns the LLM strategy when an API key is configured and the
// rule strategy otherwise.
func NewStrategy(cfg config.LLMConfig, log logger.Logger) Strategy {
	if cfg.Mode() != ModeLLM {
		return NewRuleStrategy()
	}
	return NewLLMStrategy(NewOpenAIClient(cfg, log), cfg, log)
}

func (s *LLMStrategy) Mode() string { return ModeLLM }

func (s *LLMStrategy) Analyze(ctx context.Context, prompt, language, platform string) (*models.AnalysisBrief, error) {
	user := fmt.Sprintf("User request: %s\n\nPreferred language: %s\nTarget platform: %s", prompt, language, platform)

	var brief models.AnalysisBrief
	if err := s.complete(ctx, models.StageAnalysis, analysisSystemPrompt, user, s.general, briefSchema, &brief); err != nil {
		s.recordFallback(models.StageAnalysis, err)
		return s.fallback.Analyze(ctx, prompt, language, platform)
	}
	return completeBrief(&brief, prompt, language, platform), nil
}

func (s *LLMStrategy) CreateAgent(ctx context.Context, brief *models.AnalysisBrief) (*models.AgentDraft, error) {
	user, err := encodePayload(brief)
	if err == nil {
		var draft models.AgentDraft
		if err = s.complete(ctx, models.StageAgentConfig, agentSystemPrompt, user, s.agent, draftSchema, &draft); err == nil {
			return &draft, nil
		}
	}
	s.recordFallback(models.StageAgentConfig, err)
	return s.fallback.CreateAgent(ctx, brief)
}

func (s *LLMStrategy) CreateFunctions(ctx context.Context, reqs []models.FunctionRequirement) ([]models.FunctionDefinition, error) {
	if len(reqs) == 0 {
		return []models.FunctionDefinition{}, nil
	}

	user, err := encodePayload(reqs)
	if err == nil {
		var catalogue models.FunctionCatalogue
		if err = s.complete(ctx, models.StageFunctions, functionSystemPrompt, user, s.general, catalogueSchema, &catalogue); err == nil {
			if catalogue.Functions == nil {
				catalogue.Functions = []models.FunctionDefinition{}
			}
			return catalogue.Functions, nil
		}
	}
	s.recordFallback(models.StageFunctions, err)
	return s.fallback.CreateFunctions(ctx, reqs)
}

func (s *LLMStrategy) complete(ctx context.Context, stage, system, user string, params stageParams, schema *validation.Schema, out interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature:    params.temperature,
		MaxTokens:      params.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		metrics.LLMRequests.WithLabelValues(stage, "error").Inc()
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %s", ErrLLMTimeout, stage, s.timeout)
		}
		return fmt.Errorf("%w: %v", ErrLLMGeneration, err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequests.WithLabelValues(stage, "empty").Inc()
		return fmt.Errorf("%w: no choices returned", ErrLLMGeneration)
	}

	if err := decodeReply(resp.Choices[0].Message.Content, schema, out); err != nil {
		metrics.LLMRequests.WithLabelValues(stage, "invalid").Inc()
		return err
	}

	metrics.LLMRequests.WithLabelValues(stage, "success").Inc()
	s.logger.Debug("Stage completed by model", map[string]interface{}{
		"stage":       stage,
		"model":       s.model,
		"tokens":      resp.Usage.TotalTokens,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (s *LLMStrategy) recordFallback(stage string, err error) {
	metrics.LLMFallbacks.WithLabelValues(stage).Inc()
	s.logger.WithError(err).Warn("Model stage failed, using rule engine", map[string]interface{}{
		"stage": stage,
		"model": s.model,
	})
}

// completeBrief fills what the model may leave out of a brief.
func completeBrief(brief *models.AnalysisBrief, prompt, language, platform string) *models.AnalysisBrief {
	if brief.Domain == "" {
		brief.Domain = analysis.DefaultDomain
	}
	if brief.Language == "" {
		brief.Language = language
	}
	if brief.Platform == "" {
		brief.Platform = platform
	}
	if len(brief.UserRequestedSlots) == 0 {
		brief.UserRequestedSlots = analysis.ExtractSlots(prompt)
	}
	if len(brief.FunctionsNeeded) == 0 {
		brief.FunctionsNeeded = analysis.DeriveRequirements(brief.Tasks)
	}
	if len(brief.FlowSummary) == 0 {
		brief.FlowSummary = analysis.FlowSummary(brief.Tasks)
	}
	if brief.Ambiguities == nil {
		brief.Ambiguities = []string{}
	}
	if brief.PersonalityTraits == nil {
		brief.PersonalityTraits = []string{}
	}
	return brief
}
