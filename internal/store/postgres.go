// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cx-agent-builder/internal/models"
)

var (
	ErrAgentNotFound = errors.New("AGENT_NOT_FOUND")
	ErrInsertFailed  = errors.New("DATABASE_INSERT_FAILED")
	ErrQueryFailed   = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout  = errors.New("QUERY_TIMEOUT")
)

// Migrations create the agent_configs table. They are safe to run on every
// start.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS agent_configs (
		agent_id        TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		domain          TEXT NOT NULL,
		generation_mode TEXT NOT NULL,
		status          TEXT NOT NULL,
		config          JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_configs_domain ON agent_configs (domain)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_configs_created_at ON agent_configs (created_at DESC)`,
}

const (
	upsertAgentSQL = `INSERT INTO agent_configs (agent_id, name, domain, generation_mode, status, config)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (agent_id) DO UPDATE SET
	name = EXCLUDED.name,
	domain = EXCLUDED.domain,
	generation_mode = EXCLUDED.generation_mode,
	status = EXCLUDED.status,
	config = EXCLUDED.config,
	updated_at = NOW()`

	selectAgentSQL = `SELECT config FROM agent_configs WHERE agent_id = $1`

	listAgentsSQL = `SELECT agent_id, name, domain, generation_mode, status, created_at
FROM agent_configs ORDER BY created_at DESC LIMIT $1`

	DefaultListLimit = 20
	MaxListLimit     = 100
)

// AgentSummary is one row of the agent listing.
type AgentSummary struct {
	AgentID        string    `json:"agent_id"`
	Name           string    `json:"name"`
	Domain         string    `json:"domain"`
	GenerationMode string    `json:"generation_mode"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// AgentRepository persists generated configurations in Postgres. The full
// configuration is stored as JSONB next to a few columns used for listing.
type AgentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// Save inserts cfg or replaces the stored copy with the same agent id.
func (r *AgentRepository) Save(ctx context.Context, cfg *models.CXAgentConfig) error {
	if cfg == nil || cfg.AgentID == "" {
		return fmt.Errorf("%w: configuration has no agent_id", ErrInsertFailed)
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	_, err = r.db.ExecContext(ctx, upsertAgentSQL,
		cfg.AgentID,
		cfg.Persona.Name,
		metadataString(cfg, "source_prompt"),
		metadataString(cfg, "generation_mode"),
		string(cfg.Status),
		payload,
	)
	if err != nil {
		return classify(ctx, ErrInsertFailed, err)
	}
	return nil
}

func (r *AgentRepository) Get(ctx context.Context, agentID string) (*models.CXAgentConfig, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, selectAgentSQL, agentID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	if err != nil {
		return nil, classify(ctx, ErrQueryFailed, err)
	}

	var cfg models.CXAgentConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrQueryFailed, agentID, err)
	}
	return &cfg, nil
}

// ListRecent returns the newest agents first. limit is clamped to
// [1, MaxListLimit].
func (r *AgentRepository) ListRecent(ctx context.Context, limit int) ([]AgentSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := r.db.QueryContext(ctx, listAgentsSQL, limit)
	if err != nil {
		return nil, classify(ctx, ErrQueryFailed, err)
	}
	defer rows.Close()

	out := make([]AgentSummary, 0, limit)
	for rows.Next() {
		var s AgentSummary
		if err := rows.Scan(&s.AgentID, &s.Name, &s.Domain, &s.GenerationMode, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, ErrQueryFailed, err)
	}
	return out, nil
}

func classify(ctx context.Context, base, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrQueryTimeout, err)
	}
	return fmt.Errorf("%w: %v", base, err)
}

func metadataString(cfg *models.CXAgentConfig, key string) string {
	if v, ok := cfg.Metadata[key].(string); ok {
		return v
	}
	return ""
}
