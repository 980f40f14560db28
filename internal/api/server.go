// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"
	"cx-agent-builder/internal/pipeline"
	"cx-agent-builder/internal/search"

	"github.com/gorilla/websocket"
)

const maxRequestBody = 1 << 20

// AgentService is what the HTTP layer needs from the service package.
type AgentService interface {
	Mode() string
	Create(ctx context.Context, req models.AgentCreateRequest, observe pipeline.Observer) *models.AgentCreateResponse
	Get(ctx context.Context, agentID string) (*models.CXAgentConfig, error)
	Search(ctx context.Context, query string, limit int) (*search.SearchResult, error)
	Example(ctx context.Context) *models.ExampleResponse
}

type Options struct {
	Version string
	Logger  logger.Logger
	Now     func() time.Time
}

// Server is the public JSON API. Health, readiness and metrics stay on the
// separate ops listener.
type Server struct {
	service  AgentService
	version  string
	now      func() time.Time
	logger   logger.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

func NewServer(service AgentService, opts Options) *Server {
	s := &Server{
		service: service,
		version: opts.Version,
		now:     opts.Now,
		logger:  logger.ForComponent(opts.Logger, "api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.version == "" {
		s.version = "1.0.0"
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/create-agent", s.handleCreateAgent)
	s.mux.HandleFunc("GET /api/example", s.handleExample)
	s.mux.HandleFunc("GET /api/agents", s.handleSearchAgents)
	s.mux.HandleFunc("GET /api/agents/{id}", s.handleGetAgent)
	s.mux.HandleFunc("GET /api/ws", s.handleWebsocket)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// NewHTTPServer wraps the API in an http.Server with the configured
// timeouts. Zero timeouts fall back to 60s reads and 120s writes.
func NewHTTPServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	if readTimeout <= 0 {
		readTimeout = 60 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 120 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}
}
