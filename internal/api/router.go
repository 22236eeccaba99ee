package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/camsentry/internal/api/middleware"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	// Device ingress
	r.Route("/api/camera", func(r chi.Router) {
		r.Post("/frame", s.handleFrame)
		r.Post("/status", s.handleStatus)
		r.Post("/motion-image", s.handleMotionImage)
		r.Post("/video", s.handleVideo)
	})

	// Monitor queries
	r.Route("/api/monitor", func(r chi.Router) {
		r.Get("/alerts", s.handleMonitorAlerts)
		r.Get("/events", s.handleMonitorEvents)
		r.Get("/stats", s.handleMonitorStats)
		r.Get("/summary", s.handleMonitorSummary)
	})

	// Viewer and control
	r.Get("/status", s.handleCameraStatus)
	r.Post("/start-recording", s.handleStartRecording)
	r.Post("/stop-recording", s.handleStopRecording)
	r.Get("/door-status", s.handleDoorStatus)
	r.Get("/debug/cameras", s.handleDebugCameras)
	r.Get("/video_feed", s.handleVideoFeed)
	r.Get("/ws", s.handleWS)

	// Endpoints reachable from outside the LAN get IP rate limiting.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ipLimiter))
		r.Post("/login", s.handleLogin)
		r.Post("/webhook", s.handleWebhook)
	})

	// Health check (public, no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		OK(w, map[string]string{"status": "ok"})
	})

	return r
}
