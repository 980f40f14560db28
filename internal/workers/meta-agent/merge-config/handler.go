package mergeconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "cx-agent-builder/internal/common/errors"
	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/common/metrics"
	"cx-agent-builder/internal/merge"
	"cx-agent-builder/internal/models"
	"cx-agent-builder/internal/pipeline"
)

const (
	TaskType = "merge-config"
)

var (
	ErrMissingBrief   = errors.New("MISSING_ANALYSIS_BRIEF")
	ErrMalformedDraft = errors.New("MALFORMED_DRAFT")
)

type Handler struct {
	config       *Config
	merger       *merge.Merger
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, merger *merge.Merger, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = LoadConfig().Timeout
	}
	if merger == nil {
		merger = merge.NewMerger()
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		merger:       merger,
		errorHandler: apperrors.NewErrorHandler(scoped),
		logger:       scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
		metrics.ObserveJob(TaskType, "PARSE_ERROR", time.Since(start))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr := toStandardError(err)
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		metrics.ObserveJob(TaskType, string(stdErr.Code), time.Since(start))
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.ObserveJob(TaskType, "", time.Since(start))
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.AnalysisBrief == nil {
		return nil, ErrMissingBrief
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := models.AgentCreateRequest{
		UserPrompt: input.UserPrompt,
		Language:   input.Language,
		Platform:   input.Platform,
	}.WithDefaults()

	mode := input.GenerationMode
	if mode == "" {
		mode = pipeline.ModeRuleBased
	}

	cfg, err := h.merger.Merge(merge.Input{
		Brief:     input.AnalysisBrief,
		Draft:     input.AgentDraft,
		Functions: input.Functions,
		Prompt:    req.UserPrompt,
		Language:  req.Language,
		Platform:  req.Platform,
		Mode:      mode,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDraft, err)
	}

	h.logger.Info("agent configuration merged", map[string]interface{}{
		"agentId":   cfg.AgentID,
		"functions": len(cfg.Functions),
		"intents":   len(cfg.Intents),
	})

	return &Output{
		AgentConfig: cfg,
		AgentID:     cfg.AgentID,
		Message: fmt.Sprintf("Successfully created CX agent '%s' with %d functions and %d intents.",
			cfg.Persona.Name, len(cfg.Functions), len(cfg.Intents)),
	}, nil
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrMissingBrief):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrMalformedDraft):
		return apperrors.NewMalformedDraftError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
