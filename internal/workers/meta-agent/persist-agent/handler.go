package persistagent

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
	"cx-agent-builder/internal/models"
	"cx-agent-builder/internal/store"
)

const (
	TaskType = "persist-agent"
)

var (
	ErrMissingConfig = errors.New("MISSING_AGENT_CONFIG")
	ErrInsertFailed  = errors.New("DATABASE_INSERT_FAILED")
	ErrIndexFailed   = errors.New("INDEX_FAILED")
)

type AgentSaver interface {
	Save(ctx context.Context, cfg *models.CXAgentConfig) error
}

type AgentIndexer interface {
	Index(ctx context.Context, cfg *models.CXAgentConfig) error
}

// Handler stores the merged configuration in Postgres and indexes it for
// search. The indexer is optional.
type Handler struct {
	config       *Config
	repo         AgentSaver
	indexer      AgentIndexer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, repo AgentSaver, indexer AgentIndexer, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = LoadConfig().Timeout
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         repo,
		indexer:      indexer,
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
		stdErr := toStandardError(err, &input)
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		metrics.ObserveJob(TaskType, string(stdErr.Code), time.Since(start))
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.ObserveJob(TaskType, "", time.Since(start))
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.AgentConfig == nil || input.AgentConfig.AgentID == "" {
		return nil, ErrMissingConfig
	}
	cfg := input.AgentConfig

	if err := h.repo.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	output := &Output{AgentID: cfg.AgentID, Persisted: true}

	if h.indexer != nil {
		if err := h.indexer.Index(ctx, cfg); err != nil {
			if h.config.RequireIndex {
				return nil, fmt.Errorf("%w: %w", ErrIndexFailed, err)
			}
			h.logger.Warn("agent stored but not indexed", map[string]interface{}{
				"agentId": cfg.AgentID,
				"error":   err.Error(),
			})
		} else {
			output.Indexed = true
		}
	}

	h.logger.Info("agent persisted", map[string]interface{}{
		"agentId": cfg.AgentID,
		"indexed": output.Indexed,
	})
	return output, nil
}

func toStandardError(err error, input *Input) *apperrors.StandardError {
	agentID := ""
	if input != nil && input.AgentConfig != nil {
		agentID = input.AgentConfig.AgentID
	}

	switch {
	case errors.Is(err, ErrMissingConfig):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, store.ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError("save_agent")
	case errors.Is(err, ErrInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("agentId", agentID)
	case errors.Is(err, ErrIndexFailed):
		return apperrors.NewIndexFailedError(agentID, err)
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
