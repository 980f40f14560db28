// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"
	"cx-agent-builder/internal/pipeline"
	"cx-agent-builder/internal/search"
	"cx-agent-builder/internal/service"
	"cx-agent-builder/internal/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeService runs the real rule-based service and lets tests override the
// lookup paths.
type fakeService struct {
	*service.AgentService
	get    func(id string) (*models.CXAgentConfig, error)
	search func(q string, limit int) (*search.SearchResult, error)
}

func (f *fakeService) Get(ctx context.Context, id string) (*models.CXAgentConfig, error) {
	if f.get != nil {
		return f.get(id)
	}
	return f.AgentService.Get(ctx, id)
}

func (f *fakeService) Search(ctx context.Context, q string, limit int) (*search.SearchResult, error) {
	if f.search != nil {
		return f.search(q, limit)
	}
	return f.AgentService.Search(ctx, q, limit)
}

func newTestServer(t *testing.T, svc *fakeService) *httptest.Server {
	t.Helper()
	log := logger.NewTestLogger(t)
	if svc == nil {
		svc = &fakeService{}
	}
	if svc.AgentService == nil {
		p := pipeline.New(pipeline.NewRuleStrategy(), pipeline.WithLogger(log))
		svc.AgentService = service.NewAgentService(p, service.Dependencies{}, log)
	}

	srv := NewServer(svc, Options{
		Version: "2.1.0",
		Logger:  log,
		Now:     func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// ==========================
// Endpoint Tests
// ==========================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{name: "short ascii", input: "book a table", n: 80, expected: "book a table"},
		{name: "long ascii", input: strings.Repeat("a", 100), n: 80, expected: strings.Repeat("a", 80)},
		{name: "multi-byte at boundary", input: strings.Repeat("a", 79) + "éé", n: 80, expected: strings.Repeat("a", 79) + "é"},
		{name: "all multi-byte", input: strings.Repeat("予約", 50), n: 80, expected: strings.Repeat("予約", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunes(tt.input, tt.n)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := getURL(t, ts.URL+"/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.HealthResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "2.1.0", body.Version)
	assert.Equal(t, "2026-05-01T12:00:00Z", body.Timestamp)
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := getURL(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp = getURL(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAgent(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		validate       func(t *testing.T, resp *http.Response)
	}{
		{
			name:           "appointment booking",
			body:           `{"user_prompt":"` + service.ExamplePrompt + `","language":"en-US"}`,
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, resp *http.Response) {
				var body models.AgentCreateResponse
				decodeBody(t, resp, &body)
				assert.True(t, body.Success)
				assert.Equal(t, "MediBot", body.AgentConfig.Persona.Name)
				require.Len(t, body.OpenAIToolsSchema, 2)
				assert.Equal(t, "get_appointment_slots", body.OpenAIToolsSchema[0].Function.Name)
			},
		},
		{
			name:           "prompt too short",
			body:           `{"user_prompt":"hi"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			validate: func(t *testing.T, resp *http.Response) {
				var body struct {
					Detail []string `json:"detail"`
				}
				decodeBody(t, resp, &body)
				assert.NotEmpty(t, body.Detail)
			},
		},
		{
			name:           "malformed body",
			body:           `{"user_prompt":`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "unsupported language",
			body:           `{"user_prompt":"Create a bot for hotel booking","language":"xx-XX"}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			resp := postJSON(t, ts.URL+"/api/create-agent", tt.body)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			if tt.validate != nil {
				tt.validate(t, resp)
			}
		})
	}
}

func TestCreateAgent_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := getURL(t, ts.URL+"/api/create-agent")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestExample(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := getURL(t, ts.URL+"/api/example")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ExampleResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, service.ExamplePrompt, body.Input.UserPrompt)
	assert.Equal(t, "voiceowl", body.Input.Platform)
	require.NotNil(t, body.Output)
	assert.True(t, body.Output.Success)
}

func TestGetAgent(t *testing.T) {
	tests := []struct {
		name           string
		get            func(id string) (*models.CXAgentConfig, error)
		expectedStatus int
	}{
		{
			name:           "found",
			get:            func(id string) (*models.CXAgentConfig, error) { return &models.CXAgentConfig{AgentID: id}, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			get:            func(string) (*models.CXAgentConfig, error) { return nil, store.ErrAgentNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "no store",
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "timeout",
			get:            func(string) (*models.CXAgentConfig, error) { return nil, store.ErrQueryTimeout },
			expectedStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeService{get: tt.get})
			resp := getURL(t, ts.URL+"/api/agents/agent_0011aabb")
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var cfg models.CXAgentConfig
				decodeBody(t, resp, &cfg)
				assert.Equal(t, "agent_0011aabb", cfg.AgentID)
			}
		})
	}
}

func TestSearchAgents(t *testing.T) {
	var gotQuery string
	var gotLimit int
	ts := newTestServer(t, &fakeService{search: func(q string, limit int) (*search.SearchResult, error) {
		gotQuery, gotLimit = q, limit
		return &search.SearchResult{Total: 1, Agents: []search.AgentDocument{{Name: "FinanceHelper"}}}, nil
	}})

	resp := getURL(t, ts.URL+"/api/agents?q=balance&limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body search.SearchResult
	decodeBody(t, resp, &body)
	assert.Equal(t, "FinanceHelper", body.Agents[0].Name)
	assert.Equal(t, "balance", gotQuery)
	assert.Equal(t, 5, gotLimit)

	resp = getURL(t, ts.URL+"/api/agents?limit=abc")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSearchAgents_Unavailable(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := getURL(t, ts.URL+"/api/agents?q=billing")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// ==========================
// Websocket Tests
// ==========================

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.StageEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev models.StageEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebsocket_StreamsStages(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(models.AgentCreateRequest{UserPrompt: service.ExamplePrompt}))

	var stages []string
	for {
		ev := readEvent(t, conn)
		stages = append(stages, ev.Stage)
		assert.Equal(t, pipeline.ModeRuleBased, ev.Mode)
		if ev.Stage == models.StageComplete || ev.Stage == models.StageError {
			break
		}
	}
	assert.Equal(t, []string{
		models.StageAnalysis,
		models.StageAgentConfig,
		models.StageFunctions,
		models.StageComplete,
	}, stages)
}

func TestWebsocket_InvalidRequestKeepsConnection(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	ev := readEvent(t, conn)
	assert.Equal(t, models.StageError, ev.Stage)
	assert.Contains(t, ev.Message, "invalid request")

	require.NoError(t, conn.WriteJSON(models.AgentCreateRequest{UserPrompt: "short"}))
	ev = readEvent(t, conn)
	assert.Equal(t, models.StageError, ev.Stage)

	require.NoError(t, conn.WriteJSON(models.AgentCreateRequest{UserPrompt: "Build a bot that tracks order status for shoppers"}))
	for ev.Stage != models.StageComplete {
		ev = readEvent(t, conn)
		require.NotEqual(t, models.StageError, ev.Stage, ev.Message)
	}
}
