// Package api provides the HTTP server for camera ingress, viewer control,
// and monitor queries.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/hub"
	"github.com/good-yellow-bee/camsentry/internal/integrations"
	"github.com/good-yellow-bee/camsentry/internal/models"
	"github.com/good-yellow-bee/camsentry/internal/monitor"
	"github.com/good-yellow-bee/camsentry/internal/registry"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address        string
	AuthUser       string // toy login credential, empty disables login
	AuthPassword   string
	MaxUploadBytes int64         // request body cap for media uploads
	StreamInterval time.Duration // MJPEG frame push interval
	RateLimitPerIP int           // requests per minute on login/webhook
	Verbose        bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":5000"
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 50 << 20 // recordings can run large
	}
	if c.StreamInterval == 0 {
		c.StreamInterval = 100 * time.Millisecond
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 30
	}
}

// Server is the HTTP API server.
type Server struct {
	config   *Config
	cameras  *registry.Registry
	commands *registry.CommandQueue
	hub      *hub.Hub
	monitor  *monitor.Monitor
	manager  *integrations.Manager
	server   *http.Server

	doorMu sync.RWMutex
	door   *models.DoorState
}

// New creates a new API server. monitor and manager may be nil when those
// subsystems are disabled.
func New(cfg *Config, cameras *registry.Registry, commands *registry.CommandQueue, h *hub.Hub, mon *monitor.Monitor, mgr *integrations.Manager) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cameras == nil {
		return nil, fmt.Errorf("camera registry is required")
	}
	if commands == nil {
		return nil, fmt.Errorf("command queue is required")
	}
	if h == nil {
		return nil, fmt.Errorf("hub is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:   cfg,
		cameras:  cameras,
		commands: commands,
		hub:      h,
		monitor:  mon,
		manager:  mgr,
	}

	s.server = &http.Server{
		Addr:        cfg.Address,
		Handler:     s.setupRouter(),
		ReadTimeout: 30 * time.Second,
		// WriteTimeout stays disabled: the MJPEG feed and WebSocket
		// connections are long-lived by design.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// setDoorState replaces the door state wholesale.
func (s *Server) setDoorState(state models.DoorState) {
	s.doorMu.Lock()
	s.door = &state
	s.doorMu.Unlock()
}

// doorState returns the current door state, or nil if no webhook has
// arrived yet.
func (s *Server) doorState() *models.DoorState {
	s.doorMu.RLock()
	defer s.doorMu.RUnlock()
	return s.door
}
