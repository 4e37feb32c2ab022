package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/spectoc/internal/config"
	"github.com/dgallion1/spectoc/internal/extract"
	"github.com/dgallion1/spectoc/internal/metrics"
	"github.com/dgallion1/spectoc/internal/pipeline"
	"github.com/dgallion1/spectoc/internal/search"
)

// Server is the HTTP API server for spectoc.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	searcher     *search.Searcher
	stats        *extract.LatencyStats
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats and m may be nil.
func NewServer(orch *pipeline.Orchestrator, searcher *search.Searcher, stats *extract.LatencyStats, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		searcher:     searcher,
		stats:        stats,
		metrics:      m,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(Instrument(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Authenticated endpoints when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/search", s.handleSearch)
		r.Get("/api/sections/{sectionID}", s.handleSection)
		r.Get("/api/sections/{sectionID}/children", s.handleChildren)
		r.Get("/api/toc/tree", s.handleTree)

		r.Post("/api/parse", s.handleParse)
		r.Get("/api/parse/{jobID}/status", s.handleParseStatus)
		r.Get("/api/stats/extraction", s.handleExtractionStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"index":  s.searcher.State().String(),
	})
}
