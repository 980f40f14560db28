// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/common/metrics"
	"cx-agent-builder/internal/functions"
	"cx-agent-builder/internal/merge"
	"cx-agent-builder/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var ErrInvalidRequest = errors.New("INVALID_REQUEST")

const failurePrefix = "Failed to create agent: "

// Observer receives stage events in pipeline order. It is called from the
// goroutine running Process.
type Observer func(models.StageEvent)

// Pipeline turns one agent request into a complete configuration:
// analysis, then agent and function generation side by side, then merge.
type Pipeline struct {
	strategy Strategy
	merger   *merge.Merger
	logger   logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

type Option func(*Pipeline)

func WithMerger(m *merge.Merger) Option {
	return func(p *Pipeline) { p.merger = m }
}

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.logger = logger.ForComponent(l, "pipeline") }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithClock sets the clock used for created_at and stage timings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(strategy Strategy, opts ...Option) *Pipeline {
	if strategy == nil {
		strategy = NewRuleStrategy()
	}
	p := &Pipeline{
		strategy: strategy,
		logger:   logger.ForComponent(nil, "pipeline"),
		tracer:   noop.NewTracerProvider().Tracer("pipeline"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.merger == nil {
		p.merger = merge.NewMerger(merge.WithClock(p.now))
	}
	return p
}

func (p *Pipeline) Mode() string { return p.strategy.Mode() }

// Process runs the pipeline. Failures are reported in the response, which
// then carries no configuration.
func (p *Pipeline) Process(ctx context.Context, req models.AgentCreateRequest) *models.AgentCreateResponse {
	return p.ProcessWithObserver(ctx, req, nil)
}

// ProcessWithObserver is Process with progress events delivered to observe.
func (p *Pipeline) ProcessWithObserver(ctx context.Context, req models.AgentCreateRequest, observe Observer) (resp *models.AgentCreateResponse) {
	if observe == nil {
		observe = func(models.StageEvent) {}
	}
	mode := p.strategy.Mode()
	start := p.now()

	ctx, span := p.tracer.Start(ctx, "pipeline.process", trace.WithAttributes(
		attribute.String("generation.mode", mode),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Pipeline panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			resp = p.fail(span, observe, fmt.Errorf("internal error: %v", r))
		}
		metrics.ObserveGeneration(mode, resp.Success, p.now().Sub(start))
	}()

	req = req.WithDefaults()
	if result, err := req.Validate(); err != nil {
		return p.fail(span, observe, err)
	} else if !result.Valid {
		return p.fail(span, observe, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(result.GetErrorMessages(), "; ")))
	}
	if err := ctx.Err(); err != nil {
		return p.fail(span, observe, err)
	}

	brief, err := p.analyze(ctx, req)
	if err != nil {
		return p.fail(span, observe, err)
	}
	observe(models.StageEvent{
		Stage:   models.StageAnalysis,
		Mode:    mode,
		Message: fmt.Sprintf("Identified domain '%s' with %d tasks", brief.Domain, len(brief.Tasks)),
		Data:    brief,
	})

	draft, fns, err := p.generate(ctx, brief)
	if err != nil {
		return p.fail(span, observe, err)
	}
	observe(models.StageEvent{
		Stage:   models.StageAgentConfig,
		Mode:    mode,
		Message: fmt.Sprintf("Generated persona '%s' with %d intents", draft.Persona.Name, len(draft.Intents)),
	})
	observe(models.StageEvent{
		Stage:   models.StageFunctions,
		Mode:    mode,
		Message: fmt.Sprintf("Generated %d functions", len(fns)),
	})

	_, mergeSpan := p.tracer.Start(ctx, "pipeline.merge")
	cfg, err := p.merger.Merge(merge.Input{
		Brief:     brief,
		Draft:     draft,
		Functions: fns,
		Prompt:    req.UserPrompt,
		Language:  req.Language,
		Platform:  req.Platform,
		Mode:      mode,
	})
	mergeSpan.End()
	if err != nil {
		return p.fail(span, observe, err)
	}

	resp = &models.AgentCreateResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully created CX agent '%s' with %d functions and %d intents.",
			cfg.Persona.Name, len(cfg.Functions), len(cfg.Intents)),
		AgentConfig:       cfg,
		OpenAIToolsSchema: functions.ToOpenAITools(cfg.Functions),
		RawAnalysis:       brief,
	}

	span.SetAttributes(
		attribute.String("agent.id", cfg.AgentID),
		attribute.String("agent.domain", brief.Domain),
	)
	p.logger.Info("Agent configuration created", map[string]interface{}{
		"agentId":     cfg.AgentID,
		"domain":      brief.Domain,
		"mode":        mode,
		"functions":   len(cfg.Functions),
		"intents":     len(cfg.Intents),
		"duration_ms": p.now().Sub(start).Milliseconds(),
	})
	observe(models.StageEvent{Stage: models.StageComplete, Mode: mode, Message: resp.Message, Data: resp})
	return resp
}

func (p *Pipeline) analyze(ctx context.Context, req models.AgentCreateRequest) (*models.AnalysisBrief, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.analysis")
	defer span.End()

	brief, err := p.strategy.Analyze(ctx, req.UserPrompt, req.Language, req.Platform)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if brief == nil {
		return nil, errors.New("analysis produced no brief")
	}
	span.SetAttributes(
		attribute.String("brief.domain", brief.Domain),
		attribute.Int("brief.tasks", len(brief.Tasks)),
	)
	return brief, nil
}

// generate runs the agent stage and then the function stage. Functions are
// not generated when the agent stage fails.
func (p *Pipeline) generate(ctx context.Context, brief *models.AnalysisBrief) (*models.AgentDraft, []models.FunctionDefinition, error) {
	draft, err := p.createAgent(ctx, brief)
	if err != nil {
		return nil, nil, err
	}
	if draft == nil {
		return nil, nil, fmt.Errorf("%w: agent stage produced no draft", merge.ErrMalformedDraft)
	}

	fns, err := p.createFunctions(ctx, brief)
	if err != nil {
		return nil, nil, err
	}
	return draft, fns, nil
}

func (p *Pipeline) createAgent(ctx context.Context, brief *models.AnalysisBrief) (draft *models.AgentDraft, err error) {
	defer recoverStage(models.StageAgentConfig, &err)
	ctx, span := p.tracer.Start(ctx, "pipeline.agent_config")
	defer span.End()
	return p.strategy.CreateAgent(ctx, brief)
}

func (p *Pipeline) createFunctions(ctx context.Context, brief *models.AnalysisBrief) (fns []models.FunctionDefinition, err error) {
	defer recoverStage(models.StageFunctions, &err)
	ctx, span := p.tracer.Start(ctx, "pipeline.functions")
	defer span.End()
	return p.strategy.CreateFunctions(ctx, brief.FunctionsNeeded)
}

func recoverStage(stage string, errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("%s stage panicked: %v", stage, r)
	}
}

func (p *Pipeline) fail(span trace.Span, observe Observer, err error) *models.AgentCreateResponse {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.WithError(err).Error("Agent creation failed", nil)

	resp := &models.AgentCreateResponse{
		Success: false,
		Message: failurePrefix + err.Error(),
	}
	observe(models.StageEvent{Stage: models.StageError, Mode: p.strategy.Mode(), Message: resp.Message})
	return resp
}
