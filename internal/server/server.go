package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/courtside/internal/metrics"
	"github.com/claude/courtside/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *service.Service
	metrics *metrics.Manager
	gather  prometheus.Gatherer
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. m and gather may be
// nil to run without instrumentation; an empty apiKey leaves the API open.
func New(svc *service.Service, m *metrics.Manager, gather prometheus.Gatherer, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		svc:     svc,
		metrics: m,
		gather:  gather,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(Instrument(s.metrics))
	}
	s.router.Use(CORS)

	if s.gather != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{id}", s.handleGetPlan)
		r.Get("/program/weeks/{week}", s.handleWeek)

		r.Route("/workout", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Get("/events", s.handleEvents)
			r.Post("/start", s.handleStart)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/toggle", s.handleToggle)
			r.Post("/next", s.handleNavigate(1))
			r.Post("/prev", s.handleNavigate(-1))
			r.Post("/range", s.handleRange)
			r.Post("/repeat", s.handleRepeat)
			r.Post("/visibility", s.handleVisibility)
			r.Post("/stop", s.handleStop)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handlePendingSession)
			r.Post("/resume", s.handleResumeSession)
			r.Delete("/", s.handleDiscardSession)
		})

		r.Get("/history", s.handleHistory)

		r.Route("/custom", func(r chi.Router) {
			r.Get("/", s.handleListCustom)
			r.Post("/", s.handleSaveCustom)
			r.Get("/{id}", s.handleGetCustom)
			r.Put("/{id}", s.handleSaveCustom)
			r.Delete("/{id}", s.handleDeleteCustom)
		})
	})
}

// MountMCP serves an MCP transport under /mcp, behind the API key when one
// is configured.
func (s *Server) MountMCP(h http.Handler) {
	if s.apiKey != "" {
		h = APIKeyAuth(s.apiKey)(h)
	}
	s.router.Mount("/mcp", h)
}
