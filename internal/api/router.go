package api

import (
	"net/http"

	"uigen/internal/logging"
	"uigen/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	RateLimit float64
	Burst     int
}

// NewRouter wires every endpoint behind the standard middleware chain.
// projects may be nil when no project storage is configured.
func NewRouter(sessions *SessionHandler, projects *ProjectHandler, logger *logging.Logger, opts RouterOptions) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/sessions", sessions.Create)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessions.Delete)
	mux.HandleFunc("POST /api/sessions/{id}/commands", sessions.Command)
	mux.HandleFunc("GET /api/sessions/{id}/files", sessions.Files)
	mux.HandleFunc("POST /api/sessions/{id}/generate", sessions.Generate)
	mux.HandleFunc("POST /api/sessions/{id}/save", sessions.Save)

	if projects != nil {
		mux.HandleFunc("GET /api/projects", projects.List)
		mux.HandleFunc("GET /api/projects/{id}", projects.Get)
		mux.HandleFunc("DELETE /api/projects/{id}", projects.Delete)
	}

	return middleware.Chain(
		mux,
		middleware.RateLimit(opts.RateLimit, opts.Burst),
		middleware.Logger(logger),
		middleware.Recover(logger),
		middleware.RequestID,
	)
}
