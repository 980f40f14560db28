package createagentconfig

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
	"cx-agent-builder/internal/pipeline"
)

const (
	TaskType = "create-agent-config"
)

var (
	ErrMissingBrief          = errors.New("MISSING_ANALYSIS_BRIEF")
	ErrAgentGenerationFailed = errors.New("AGENT_GENERATION_FAILED")
	ErrGenerationTimeout     = errors.New("LLM_TIMEOUT")
)

type Handler struct {
	config       *Config
	strategy     pipeline.Strategy
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, strategy pipeline.Strategy, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = LoadConfig().Timeout
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		strategy:     strategy,
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
		stdErr := toStandardError(err, h.strategy.Mode())
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

	draft, err := h.strategy.CreateAgent(ctx, input.AnalysisBrief)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrGenerationTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrAgentGenerationFailed, err)
	}

	output := &Output{
		AgentDraft:  draft,
		IntentCount: len(draft.Intents),
	}
	if draft.ConversationFlow != nil {
		output.NodeCount = len(draft.ConversationFlow.Nodes)
	}
	return output, nil
}

func toStandardError(err error, mode string) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrMissingBrief):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrGenerationTimeout):
		return apperrors.NewLLMTimeoutError("agent_config")
	case errors.Is(err, ErrAgentGenerationFailed) && mode == pipeline.ModeLLM:
		return apperrors.NewLLMGenerationFailedError("agent_config", err)
	case errors.Is(err, ErrAgentGenerationFailed):
		return apperrors.NewAgentGenerationFailedError(err)
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
