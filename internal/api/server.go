// Package api provides the daemon's HTTP control surface.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ksurct/common/internal/config"
	"github.com/ksurct/common/internal/health"
	"github.com/ksurct/common/internal/hub"
	"github.com/ksurct/common/internal/log"
	"github.com/ksurct/common/internal/record"
)

// Server exposes controllers and recordings over HTTP.
type Server struct {
	cfg      config.AppConfig
	hub      *hub.Hub
	recorder *record.Recorder
	frames   *record.FrameStore
	catalog  *record.Catalog
	health   *health.Manager
	logger   zerolog.Logger
	started  time.Time
}

// NewServer wires the API over the daemon's components.
func NewServer(cfg config.AppConfig, h *hub.Hub, rec *record.Recorder, frames *record.FrameStore, catalog *record.Catalog, hm *health.Manager) *Server {
	return &Server{
		cfg:      cfg,
		hub:      h,
		recorder: rec,
		frames:   frames,
		catalog:  catalog,
		health:   hm,
		logger:   log.WithComponent("api"),
		started:  time.Now(),
	}
}

// Router builds the chi router with the canonical middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Recoverer outermost, correlation early, then observability.
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(Metrics)
	r.Use(Logging)
	if s.cfg.RateLimitRPM > 0 {
		r.Use(RateLimit(s.cfg.RateLimitRPM))
	}

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/controllers", s.handleControllers)
		r.Get("/controllers/{id}", s.handleController)
		r.Get("/controllers/{id}/events", s.handleControllerEvents)

		r.Get("/recordings", s.handleListRecordings)
		r.Get("/recordings/{id}", s.handleGetRecording)
		r.Get("/recordings/{id}/frames", s.handleRecordingFrames)
		r.Get("/recordings/{id}/replay", s.handleReplay)

		// Mutating routes require the API token.
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/controllers/{id}/rumble", s.handleRumble)
			r.Post("/controllers/{id}/zero", s.handleZero)
			r.Post("/recordings", s.handleStartRecording)
			r.Post("/recordings/{id}/stop", s.handleStopRecording)
			r.Post("/recordings/{id}/export", s.handleExportRecording)
			r.Delete("/recordings/{id}", s.handleDeleteRecording)
		})
	})

	return r
}
