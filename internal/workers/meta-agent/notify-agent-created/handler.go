package notifyagentcreated

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
	"cx-agent-builder/internal/notify"
)

const (
	TaskType = "notify-agent-created"
)

var (
	ErrMissingConfig = errors.New("MISSING_AGENT_CONFIG")
	ErrEventFailed   = errors.New("EVENT_PUBLISH_FAILED")
	ErrMailFailed    = errors.New("MAIL_SEND_FAILED")
	ErrBadRecipient  = errors.New("INVALID_RECIPIENT")
)

type Publisher interface {
	PublishAgentCreated(ctx context.Context, cfg *models.CXAgentConfig) (string, error)
	SendSummary(ctx context.Context, to string, cfg *models.CXAgentConfig) (string, error)
}

type Handler struct {
	config       *Config
	publisher    Publisher
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, publisher Publisher, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = LoadConfig().Timeout
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		publisher:    publisher,
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

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
		return
	}
	metrics.ObserveJob(TaskType, "", time.Since(start))
}

// execute publishes the event before mailing. A failed event aborts the job
// so the retry does not mail the summary twice.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.AgentConfig == nil || input.AgentConfig.AgentID == "" {
		return nil, ErrMissingConfig
	}

	eventID, err := h.publisher.PublishAgentCreated(ctx, input.AgentConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventFailed, err)
	}

	mailID, err := h.publisher.SendSummary(ctx, input.NotifyEmail, input.AgentConfig)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidRecipient) {
			return nil, fmt.Errorf("%w: %w", ErrBadRecipient, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMailFailed, err)
	}

	output := &Output{
		EventMessageID: eventID,
		MailMessageID:  mailID,
		Notified:       eventID != "" || mailID != "",
	}
	h.logger.Info("agent creation announced", map[string]interface{}{
		"agentId":  input.AgentConfig.AgentID,
		"notified": output.Notified,
	})
	return output, nil
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrMissingConfig):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrBadRecipient):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrEventFailed):
		return apperrors.NewNotificationSendFailedError("sns", err)
	case errors.Is(err, ErrMailFailed):
		return apperrors.NewNotificationSendFailedError("ses", err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
