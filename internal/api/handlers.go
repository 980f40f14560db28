// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "cx-agent-builder/internal/common/errors"
	"cx-agent-builder/internal/models"
	"cx-agent-builder/internal/search"
	"cx-agent-builder/internal/service"
	"cx-agent-builder/internal/store"
)

const indexPage = `<!DOCTYPE html>
<html><head><title>Meta Agent CX</title></head>
<body><h1>Meta Agent CX</h1>
<p>POST a JSON body with <code>user_prompt</code> to <code>/api/create-agent</code>,
or open a websocket on <code>/api/ws</code> to follow generation stage by stage.</p>
<p>See <a href="/api/example">/api/example</a> for a complete request and response.</p>
</body></html>`

const maxLoggedPromptRunes = 80

// truncateRunes cuts s to at most n characters without splitting a
// multi-byte rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// errorBody is the error envelope of every non-2xx JSON response.
type errorBody struct {
	Detail interface{} `json:"detail"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req models.AgentCreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "invalid request body: " + err.Error()})
		return
	}

	result, err := req.WithDefaults().Validate()
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Detail: err.Error()})
		return
	}
	if !result.Valid {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: result.GetErrorMessages()})
		return
	}

	s.logger.Info("Received agent creation request", map[string]interface{}{
		"prompt": truncateRunes(req.UserPrompt, maxLoggedPromptRunes),
	})

	resp := s.service.Create(r.Context(), req, nil)
	if !resp.Success {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Detail: resp.Message})
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Example(r.Context()))
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	cfg, err := s.service.Get(r.Context(), id)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, cfg)
	case errors.Is(err, store.ErrAgentNotFound):
		stdErr := apperrors.NewAgentNotFoundError(id)
		s.logger.Debug("agent not found", map[string]interface{}{
			"agentId":   id,
			"errorCode": string(stdErr.Code),
		})
		s.writeJSON(w, http.StatusNotFound, errorBody{Detail: "agent not found: " + id})
	case errors.Is(err, service.ErrStoreUnavailable):
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: "agent store is not configured"})
	case errors.Is(err, store.ErrQueryTimeout):
		s.writeJSON(w, http.StatusGatewayTimeout, errorBody{Detail: err.Error()})
	default:
		stdErr := apperrors.NewQueryExecutionFailedError("get_agent", err)
		s.logger.WithError(err).Error("agent lookup failed", map[string]interface{}{
			"agentId":   id,
			"errorCode": string(stdErr.Code),
		})
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "agent lookup failed"})
	}
}

func (s *Server) handleSearchAgents(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	result, err := s.service.Search(r.Context(), query, limit)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, result)
	case errors.Is(err, service.ErrSearchUnavailable):
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody{Detail: "agent search is not configured"})
	case errors.Is(err, search.ErrSearchTimeout):
		s.writeJSON(w, http.StatusGatewayTimeout, errorBody{Detail: err.Error()})
	default:
		stdErr := apperrors.NewSearchQueryFailedError(query, err)
		s.logger.WithError(err).Error("agent search failed", map[string]interface{}{
			"query":     query,
			"errorCode": string(stdErr.Code),
		})
		s.writeJSON(w, http.StatusBadGateway, errorBody{Detail: "agent search failed"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}
