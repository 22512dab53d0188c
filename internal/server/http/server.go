// Package httpserver provides the HTTP API for the article explorer: the
// search proxy used by the browser client and the reading session API.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/article-explorer/internal/database"
	"github.com/helixir/article-explorer/internal/domain"
	"github.com/helixir/article-explorer/internal/observability"
	"github.com/helixir/article-explorer/internal/papersources"
	"github.com/helixir/article-explorer/internal/reading"
	"github.com/helixir/article-explorer/internal/repository"
)

// Searcher runs provider searches. It is implemented by *search.Service.
type Searcher interface {
	// Raw returns the provider response untouched.
	Raw(ctx context.Context, query string, limit int) (*papersources.RawResult, error)
	// Search returns normalized articles.
	Search(ctx context.Context, query string, limit int) ([]domain.Article, error)
}

// HealthChecker reports storage health. It is implemented by *database.DB.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins is the CORS allow-list. The first entry is the fallback
	// origin for requests from anywhere else.
	AllowedOrigins []string

	// DefaultLimit is the search result count used when a request gives none.
	DefaultLimit int
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        Config

	searcher  Searcher
	sessions  *reading.Manager
	snapshots repository.AnnotationRepository
	health    HealthChecker
	metrics   *observability.Metrics
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewServer creates a new HTTP server. health and metrics may be nil.
func NewServer(
	cfg Config,
	searcher Searcher,
	sessions *reading.Manager,
	snapshots repository.AnnotationRepository,
	health HealthChecker,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = papersources.DefaultLimit
	}

	s := &Server{
		cfg:       cfg,
		searcher:  searcher,
		sessions:  sessions,
		snapshots: snapshots,
		health:    health,
		metrics:   metrics,
		validate:  newValidator(),
		logger:    logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(metricsMiddleware(s.metrics))
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	// The browser client's search proxy.
	r.HandleFunc("/api/search", s.searchProxy)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/articles/search", s.searchArticles)
		r.Get("/articles/{articleID}/annotations", s.getLatestAnnotations)
		r.Get("/articles/{articleID}/annotations/history", s.listAnnotationHistory)
		r.Get("/citation-styles", s.listCitationStyles)
		r.Get("/export-formats", s.listExportFormats)

		r.Post("/sessions", s.openSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.closeSession)
			r.Post("/highlights", s.addHighlight)
			r.Get("/highlights", s.listHighlights)
			r.Post("/notes", s.addNote)
			r.Get("/notes", s.listNotes)
			r.Put("/progress", s.updateProgress)
			r.Get("/citation", s.getCitation)
			r.Get("/export", s.exportNotes)
			r.Post("/snapshot", s.saveSnapshot)
		})
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports readiness including storage connectivity.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "storage": "memory"})
		return
	}

	health := s.health.Health(r.Context())
	if !health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "database": health.Status})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
