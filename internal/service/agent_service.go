// internal/service/agent_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "cx-agent-builder/internal/common/errors"
	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/common/metrics"
	"cx-agent-builder/internal/models"
	"cx-agent-builder/internal/pipeline"
	"cx-agent-builder/internal/search"
	"cx-agent-builder/internal/store"
)

// ExamplePrompt is the canonical request served by the example endpoint.
const ExamplePrompt = "Create a support bot for appointment booking. It should greet, ask for name and date, and confirm availability via an API."

const defaultSideEffectTimeout = 10 * time.Second

var (
	ErrStoreUnavailable  = errors.New("STORE_UNAVAILABLE")
	ErrSearchUnavailable = errors.New("SEARCH_UNAVAILABLE")
)

// Generator runs the generation pipeline.
type Generator interface {
	Mode() string
	ProcessWithObserver(ctx context.Context, req models.AgentCreateRequest, observe pipeline.Observer) *models.AgentCreateResponse
}

type ResponseCache interface {
	Get(ctx context.Context, req models.AgentCreateRequest, mode string) (*models.AgentCreateResponse, bool, error)
	Set(ctx context.Context, req models.AgentCreateRequest, mode string, resp *models.AgentCreateResponse) error
}

type Repository interface {
	Save(ctx context.Context, cfg *models.CXAgentConfig) error
	Get(ctx context.Context, agentID string) (*models.CXAgentConfig, error)
	ListRecent(ctx context.Context, limit int) ([]store.AgentSummary, error)
}

type Indexer interface {
	Index(ctx context.Context, cfg *models.CXAgentConfig) error
	Search(ctx context.Context, query string, limit int) (*search.SearchResult, error)
}

type Notifier interface {
	Notify(ctx context.Context, cfg *models.CXAgentConfig, email string) error
}

// Dependencies lists the optional collaborators. Nil members are skipped.
type Dependencies struct {
	Cache    ResponseCache
	Repo     Repository
	Indexer  Indexer
	Notifier Notifier
}

// AgentService wraps the pipeline with the request-level concerns around it:
// the response cache, persistence, indexing and notifications. None of
// those can turn a generated configuration into a failure.
type AgentService struct {
	generator         Generator
	deps              Dependencies
	sideEffectTimeout time.Duration
	logger            logger.Logger
}

func NewAgentService(generator Generator, deps Dependencies, log logger.Logger) *AgentService {
	return &AgentService{
		generator:         generator,
		deps:              deps,
		sideEffectTimeout: defaultSideEffectTimeout,
		logger:            logger.ForComponent(log, "agent-service"),
	}
}

func (s *AgentService) Mode() string { return s.generator.Mode() }

// Create generates an agent for req. observe may be nil.
func (s *AgentService) Create(ctx context.Context, req models.AgentCreateRequest, observe pipeline.Observer) *models.AgentCreateResponse {
	req = req.WithDefaults()
	mode := s.generator.Mode()

	if cached := s.fromCache(ctx, req, mode); cached != nil {
		if observe != nil {
			observe(models.StageEvent{Stage: models.StageComplete, Mode: mode, Message: "served from cache", Data: cached})
		}
		return cached
	}

	resp := s.generator.ProcessWithObserver(ctx, req, observe)
	if !resp.Success || resp.AgentConfig == nil {
		return resp
	}

	// Side effects outlive a client that disconnects right after the reply.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
	defer cancel()
	s.persist(sctx, req, mode, resp)

	return resp
}

func (s *AgentService) fromCache(ctx context.Context, req models.AgentCreateRequest, mode string) *models.AgentCreateResponse {
	if s.deps.Cache == nil {
		return nil
	}
	resp, hit, err := s.deps.Cache.Get(ctx, req, mode)
	if err != nil {
		s.sideEffectFailed("cache", err, nil)
		return nil
	}
	if !hit {
		return nil
	}
	s.logger.Info("agent served from cache", map[string]interface{}{"mode": mode})
	return resp
}

func (s *AgentService) persist(ctx context.Context, req models.AgentCreateRequest, mode string, resp *models.AgentCreateResponse) {
	cfg := resp.AgentConfig
	fields := map[string]interface{}{"agentId": cfg.AgentID}

	if s.deps.Repo != nil {
		if err := s.deps.Repo.Save(ctx, cfg); err != nil {
			s.sideEffectFailed("store", err, fields)
		}
	}
	if s.deps.Indexer != nil {
		if err := s.deps.Indexer.Index(ctx, cfg); err != nil {
			s.sideEffectFailed("search", err, fields)
		}
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, req, mode, resp); err != nil {
			s.sideEffectFailed("cache", err, fields)
		}
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Notify(ctx, cfg, req.NotifyEmail); err != nil {
			s.sideEffectFailed("notify", err, fields)
		}
	}
}

func (s *AgentService) sideEffectFailed(component string, err error, fields map[string]interface{}) {
	metrics.SideEffectFailures.WithLabelValues(component).Inc()

	agentID, _ := fields["agentId"].(string)
	stdErr := sideEffectError(component, agentID, err)
	logFields := map[string]interface{}{
		"component":     component,
		"errorCode":     string(stdErr.Code),
		"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
		"retryable":     stdErr.Retryable,
		"error":         err.Error(),
	}
	for k, v := range fields {
		logFields[k] = v
	}
	s.logger.Warn("side effect failed", logFields)
}

// sideEffectError classifies a failed best-effort write with the same codes
// the workers report.
func sideEffectError(component, agentID string, err error) *apperrors.StandardError {
	switch component {
	case "cache":
		return apperrors.NewCacheFailedError(err)
	case "store":
		if errors.Is(err, store.ErrQueryTimeout) {
			return apperrors.NewQueryTimeoutError("save_agent")
		}
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("agentId", agentID)
	case "search":
		return apperrors.NewIndexFailedError(agentID, err)
	case "notify":
		return apperrors.NewNotificationSendFailedError("sns/ses", err)
	default:
		return apperrors.NewInternalError(err)
	}
}

// Get loads a stored configuration.
func (s *AgentService) Get(ctx context.Context, agentID string) (*models.CXAgentConfig, error) {
	if s.deps.Repo == nil {
		return nil, ErrStoreUnavailable
	}
	return s.deps.Repo.Get(ctx, agentID)
}

// Search finds agents through the index. Without an index an empty query
// falls back to the most recent rows in the store.
func (s *AgentService) Search(ctx context.Context, query string, limit int) (*search.SearchResult, error) {
	if s.deps.Indexer != nil {
		return s.deps.Indexer.Search(ctx, query, limit)
	}
	if query != "" || s.deps.Repo == nil {
		return nil, ErrSearchUnavailable
	}

	rows, err := s.deps.Repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent agents: %w", err)
	}
	result := &search.SearchResult{Total: len(rows), Agents: make([]search.AgentDocument, 0, len(rows))}
	for _, row := range rows {
		result.Agents = append(result.Agents, search.AgentDocument{
			AgentID:        row.AgentID,
			Name:           row.Name,
			Domain:         row.Domain,
			GenerationMode: row.GenerationMode,
			Status:         row.Status,
			CreatedAt:      row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result, nil
}

// Example runs the canonical request without caching or persisting it.
func (s *AgentService) Example(ctx context.Context) *models.ExampleResponse {
	req := models.AgentCreateRequest{UserPrompt: ExamplePrompt}.WithDefaults()
	return &models.ExampleResponse{
		Input:  req,
		Output: s.generator.ProcessWithObserver(ctx, req, nil),
	}
}
