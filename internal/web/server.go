package web

import (
	"context"
	"net/http"

	"songcatalog/internal/logger"
	"songcatalog/internal/pipeline"
)

type Server struct {
	ctx    context.Context
	runs   *RunManager
	deps   *pipeline.Deps
	logger *logger.Logger

	// runs share the output directory, so one executes at a time
	slot chan struct{}
}

// NewServer creates a server whose runs are cancelled when ctx is.
func NewServer(ctx context.Context, runs *RunManager, deps *pipeline.Deps, log *logger.Logger) *Server {
	return &Server{
		ctx:    ctx,
		runs:   runs,
		deps:   deps,
		logger: log,
		slot:   make(chan struct{}, 1),
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/runs", s.handleCreateRun)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /api/runs/{id}/cancel", s.handleCancelRun)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
