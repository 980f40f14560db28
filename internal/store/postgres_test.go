// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cx-agent-builder/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func sampleConfig(id string) *models.CXAgentConfig {
	return &models.CXAgentConfig{
		AgentID:   id,
		Version:   "1.0.0",
		Status:    models.StatusDraft,
		CreatedAt: "2026-02-24T10:30:00Z",
		Persona:   models.PersonaConfig{Name: "MediBot", Role: "Healthcare Appointment & Patient Support Agent"},
		Functions: []models.FunctionDefinition{
			{
				FunctionID: "fn_0a1b2c3d",
				Name:       "get_appointment_slots",
				Parameters: []models.FunctionParameter{{Name: "preferred_date", Type: "string", Required: true}},
				APIEndpoint: &models.APIEndpoint{
					URL: "/api/v1/appointment/slots", Method: "GET", TimeoutSeconds: 10,
				},
			},
		},
		ConversationFlow: &models.ConversationFlow{Name: "healthcare_flow", EntryNodeID: "node_greet"},
		Metadata: map[string]interface{}{
			"source_prompt":   "healthcare",
			"generation_mode": "rule_based",
		},
	}
}

func newMockRepo(t *testing.T) (*AgentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAgentRepository(db), mock
}

// ==========================
// Save Tests
// ==========================

func TestAgentRepository_Save(t *testing.T) {
	repo, mock := newMockRepo(t)
	cfg := sampleConfig("agent_0123456789ab")

	mock.ExpectExec(`INSERT INTO agent_configs`).
		WithArgs("agent_0123456789ab", "MediBot", "healthcare", "rule_based", "draft", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), cfg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentRepository_SaveErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	err := repo.Save(context.Background(), &models.CXAgentConfig{})
	assert.True(t, errors.Is(err, ErrInsertFailed))

	mock.ExpectExec(`INSERT INTO agent_configs`).WillReturnError(errors.New("disk full"))
	err = repo.Save(context.Background(), sampleConfig("agent_0123456789ab"))
	assert.True(t, errors.Is(err, ErrInsertFailed))
	assert.Contains(t, err.Error(), "disk full")
}

// ==========================
// Get Tests
// ==========================

func TestAgentRepository_Get(t *testing.T) {
	repo, mock := newMockRepo(t)
	payload, err := json.Marshal(sampleConfig("agent_0123456789ab"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT config FROM agent_configs WHERE agent_id = \$1`).
		WithArgs("agent_0123456789ab").
		WillReturnRows(sqlmock.NewRows([]string{"config"}).AddRow(payload))

	cfg, err := repo.Get(context.Background(), "agent_0123456789ab")
	require.NoError(t, err)
	assert.Equal(t, "MediBot", cfg.Persona.Name)
	require.Len(t, cfg.Functions, 1)
	assert.Equal(t, "GET", cfg.Functions[0].APIEndpoint.Method)
	assert.True(t, cfg.Functions[0].Parameters[0].Required)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentRepository_GetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT config FROM agent_configs`).
		WithArgs("agent_missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "agent_missing")
	assert.True(t, errors.Is(err, ErrAgentNotFound))
}

func TestAgentRepository_GetCorruptPayload(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT config FROM agent_configs`).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).AddRow([]byte("{not json")))

	_, err := repo.Get(context.Background(), "agent_0123456789ab")
	assert.True(t, errors.Is(err, ErrQueryFailed))
}

func TestAgentRepository_GetTimeout(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	mock.ExpectQuery(`SELECT config FROM agent_configs`).
		WillDelayFor(50 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).AddRow([]byte("{}")))

	_, err := repo.Get(ctx, "agent_0123456789ab")
	assert.True(t, errors.Is(err, ErrQueryTimeout), "got %v", err)
}

// ==========================
// List Tests
// ==========================

func TestAgentRepository_ListRecent(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default", limit: 0, wantLimit: DefaultListLimit},
		{name: "explicit", limit: 5, wantLimit: 5},
		{name: "clamped", limit: 1000, wantLimit: MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			created := time.Date(2026, 2, 24, 10, 30, 0, 0, time.UTC)

			mock.ExpectQuery(`SELECT agent_id, name, domain, generation_mode, status, created_at FROM agent_configs ORDER BY created_at DESC LIMIT \$1`).
				WithArgs(tt.wantLimit).
				WillReturnRows(sqlmock.NewRows([]string{"agent_id", "name", "domain", "generation_mode", "status", "created_at"}).
					AddRow("agent_2", "ShopAssist", "e-commerce", "llm", "draft", created).
					AddRow("agent_1", "MediBot", "healthcare", "rule_based", "draft", created.Add(-time.Hour)))

			list, err := repo.ListRecent(context.Background(), tt.limit)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "agent_2", list[0].AgentID)
			assert.Equal(t, "e-commerce", list[0].Domain)
			assert.Equal(t, "rule_based", list[1].GenerationMode)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
