// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cx-agent-builder/internal/models"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// handleWebsocket accepts one AgentCreateRequest per text message and
// streams the stage events of each run back on the same connection.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBody)

	s.logger.Debug("websocket client connected", map[string]interface{}{"remote": conn.RemoteAddr().String()})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		var req models.AgentCreateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if !s.sendEvent(conn, models.StageEvent{Stage: models.StageError, Message: "invalid request: " + err.Error()}) {
				return
			}
			continue
		}

		if result, err := req.WithDefaults().Validate(); err == nil && !result.Valid {
			if !s.sendEvent(conn, models.StageEvent{
				Stage:   models.StageError,
				Message: "invalid request: " + strings.Join(result.GetErrorMessages(), "; "),
			}) {
				return
			}
			continue
		}

		// Events arrive on this goroutine, so writes are never concurrent.
		open := true
		s.service.Create(r.Context(), req, func(ev models.StageEvent) {
			if open {
				open = s.sendEvent(conn, ev)
			}
		})
		if !open {
			return
		}
	}
}

func (s *Server) sendEvent(conn *websocket.Conn, ev models.StageEvent) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(ev); err != nil {
		s.logger.Warn("websocket write failed", map[string]interface{}{"stage": ev.Stage, "error": err.Error()})
		return false
	}
	return true
}
