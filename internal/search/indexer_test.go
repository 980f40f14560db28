// internal/search/indexer_test.go
package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cx-agent-builder/internal/common/config"
	"cx-agent-builder/internal/common/database"
	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeElasticsearch struct {
	mu       sync.Mutex
	requests []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.handle(w, r)
}

func (f *fakeElasticsearch) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func createTestIndexer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*Indexer, *fakeElasticsearch) {
	fake := &fakeElasticsearch{handle: handle}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: server.URL})
	require.NoError(t, err)

	return NewIndexer(client.Client, "", logger.NewTestLogger(t)), fake
}

func sampleConfig() *models.CXAgentConfig {
	return &models.CXAgentConfig{
		AgentID:   "agent_1234abcd",
		Status:    models.StatusDraft,
		CreatedAt: "2026-01-02T03:04:05Z",
		Persona:   models.PersonaConfig{Name: "MediBot", Role: "Appointment & Patient Support Agent"},
		Voice:     models.VoiceConfig{Language: "en-US"},
		Intents: []models.IntentDefinition{
			{Name: "greeting"},
			{Name: "appointment_booking"},
		},
		Functions: []models.FunctionDefinition{
			{Name: "get_appointment_slots"},
		},
		Deployment: models.DeploymentConfig{Platform: "voiceowl"},
		Metadata: map[string]interface{}{
			"source_prompt":   "healthcare",
			"generation_mode": "rule_based",
		},
	}
}

// ==========================
// Document Tests
// ==========================

func TestNewDocument(t *testing.T) {
	doc := NewDocument(sampleConfig())

	assert.Equal(t, "agent_1234abcd", doc.AgentID)
	assert.Equal(t, "MediBot", doc.Name)
	assert.Equal(t, "healthcare", doc.Domain)
	assert.Equal(t, "rule_based", doc.GenerationMode)
	assert.Equal(t, "draft", doc.Status)
	assert.Equal(t, []string{"greeting", "appointment_booking"}, doc.Intents)
	assert.Equal(t, []string{"get_appointment_slots"}, doc.Functions)
}

// ==========================
// Index Tests
// ==========================

func TestEnsureIndex(t *testing.T) {
	tests := []struct {
		name          string
		existsStatus  int
		createStatus  int
		expectCreate  bool
		expectedError error
	}{
		{name: "already exists", existsStatus: http.StatusOK},
		{name: "created", existsStatus: http.StatusNotFound, createStatus: http.StatusOK, expectCreate: true},
		{name: "created concurrently", existsStatus: http.StatusNotFound, createStatus: http.StatusBadRequest, expectCreate: true},
		{name: "create fails", existsStatus: http.StatusNotFound, createStatus: http.StatusInternalServerError, expectCreate: true, expectedError: ErrIndexFailed},
		{name: "check fails", existsStatus: http.StatusInternalServerError, expectedError: ErrIndexFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indexer, fake := createTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodHead:
					w.WriteHeader(tt.existsStatus)
				case http.MethodPut:
					w.WriteHeader(tt.createStatus)
					_, _ = w.Write([]byte(`{}`))
				}
			})

			err := indexer.EnsureIndex(context.Background())
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			var created bool
			for _, req := range fake.recorded() {
				if req.Method == http.MethodPut {
					created = true
					assert.Equal(t, "/cx-agents", req.Path)
					assert.Contains(t, req.Body, `"intents"`)
				}
			}
			assert.Equal(t, tt.expectCreate, created)
		})
	}
}

func TestIndex(t *testing.T) {
	indexer, fake := createTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	require.NoError(t, indexer.Index(context.Background(), sampleConfig()))

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/cx-agents/_doc/agent_1234abcd", reqs[0].Path)

	var doc AgentDocument
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &doc))
	assert.Equal(t, "MediBot", doc.Name)
}

func TestIndex_Errors(t *testing.T) {
	indexer, _ := createTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := indexer.Index(context.Background(), &models.CXAgentConfig{})
	assert.ErrorIs(t, err, ErrIndexFailed)

	err = indexer.Index(context.Background(), sampleConfig())
	assert.ErrorIs(t, err, ErrIndexFailed)
}

// ==========================
// Search Tests
// ==========================

func TestSearch(t *testing.T) {
	indexer, fake := createTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 1},
				"hits": [{"_score": 1.2, "_source": {"agent_id": "agent_1234abcd", "name": "MediBot", "domain": "healthcare"}}]
			}
		}`))
	})

	result, err := indexer.Search(context.Background(), "appointment", 500)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Agents, 1)
	assert.Equal(t, "MediBot", result.Agents[0].Name)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.True(t, strings.HasSuffix(reqs[0].Path, "/cx-agents/_search"))
	assert.Contains(t, reqs[0].Body, `"multi_match"`)
	assert.Contains(t, reqs[0].Body, `"name^2"`)
}

func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	indexer, fake := createTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":0},"hits":[]}}`))
	})

	result, err := indexer.Search(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Agents)
	assert.Contains(t, fake.recorded()[0].Body, `"match_all"`)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedError error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, expectedError: ErrSearchQueryFailed},
		{name: "bad body", status: http.StatusOK, body: `not json`, expectedError: ErrSearchQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indexer, _ := createTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := indexer.Search(context.Background(), "billing", 5)
			assert.ErrorIs(t, err, tt.expectedError)
		})
	}
}

func TestSearch_Timeout(t *testing.T) {
	indexer, _ := createTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	_, err := indexer.Search(ctx, "billing", 5)
	assert.ErrorIs(t, err, ErrSearchTimeout)
}
