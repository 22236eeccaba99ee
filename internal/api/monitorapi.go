package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/models"
	"github.com/good-yellow-bee/camsentry/internal/monitor"
)

// queryLimit parses the limit parameter, defaulting and capping at the
// retained history size.
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// handleMonitorAlerts serves filtered alert history, most recent first.
func (s *Server) handleMonitorAlerts(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		JSONError(w, NewNotFound("event monitor is disabled"))
		return
	}

	var filter monitor.AlertFilter
	if raw := r.URL.Query().Get("severity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !models.Severity(n).Valid() {
			JSONError(w, NewBadRequest("invalid severity"))
			return
		}
		filter.Severity = models.Severity(n)
	}
	filter.Category = r.URL.Query().Get("category")
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			JSONError(w, NewBadRequest("since must be RFC 3339"))
			return
		}
		filter.Since = since
	}

	alerts := s.monitor.GetAlerts(queryLimit(r, 50), filter)
	OK(w, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// handleMonitorEvents serves event history, optionally filtered by type.
func (s *Server) handleMonitorEvents(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		JSONError(w, NewNotFound("event monitor is disabled"))
		return
	}

	eventType := models.EventType(r.URL.Query().Get("type"))
	events := s.monitor.GetEvents(queryLimit(r, 50), eventType)
	OK(w, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

// handleMonitorStats serves the full counter snapshot.
func (s *Server) handleMonitorStats(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		JSONError(w, NewNotFound("event monitor is disabled"))
		return
	}
	OK(w, s.monitor.Stats())
}

// handleMonitorSummary serves the dashboard rollup.
func (s *Server) handleMonitorSummary(w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		JSONError(w, NewNotFound("event monitor is disabled"))
		return
	}
	OK(w, s.monitor.Summary())
}
