// Package monitor tails a Suricata eve.json log, classifies records into
// alerts and informational events, and maintains bounded recent-history
// buffers with aggregate counters.
package monitor

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/metrics"
	"github.com/good-yellow-bee/camsentry/internal/models"
	"github.com/good-yellow-bee/camsentry/internal/tailer"
)

// Config configures a Monitor.
type Config struct {
	// MaxAlerts caps the alert history length (default 100).
	MaxAlerts int
	// MaxEvents caps the event history length (default 200).
	MaxEvents int
	// Backlog is how many trailing eve lines to replay on start.
	Backlog int
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.MaxAlerts <= 0 {
		c.MaxAlerts = 100
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = 200
	}
	if c.Backlog <= 0 {
		c.Backlog = 100
	}
}

// Subscriber receives each classified alert as it is ingested.
type Subscriber func(models.Alert)

// Monitor is the eve.json event monitor. All exported methods are safe for
// concurrent use; ingestion is single-threaded so per-source ordering of
// the log is preserved.
type Monitor struct {
	cfg Config

	mu          sync.RWMutex
	alerts      []models.Alert // most recent first
	events      []models.Event // most recent first
	totalAlerts int64
	totalEvents int64
	bySeverity  map[models.Severity]int64
	byCategory  map[string]int64
	lastUpdate  time.Time

	active     atomic.Bool
	stopping   atomic.Bool
	subscriber Subscriber

	tail *tailer.Tailer
	done chan struct{}
}

// New creates a Monitor. It does not start tailing; call Start.
func New(cfg Config) *Monitor {
	cfg.SetDefaults()
	return &Monitor{
		cfg:        cfg,
		bySeverity: make(map[models.Severity]int64),
		byCategory: make(map[string]int64),
	}
}

// Subscribe registers the real-time alert subscriber. Must be called
// before Start.
func (m *Monitor) Subscribe(s Subscriber) {
	m.subscriber = s
}

// Start begins tailing logPath. A missing log path is a non-fatal failure:
// an error is returned and the monitoring flag stays false, but the caller
// is expected to keep running without the monitor.
func (m *Monitor) Start(ctx context.Context, logPath string) error {
	if _, err := os.Stat(logPath); err != nil {
		m.active.Store(false)
		return fmt.Errorf("eve log unavailable: %w", err)
	}

	opts := tailer.DefaultOptions()
	opts.Backlog = m.cfg.Backlog

	t, err := tailer.New(logPath, opts)
	if err != nil {
		m.active.Store(false)
		return fmt.Errorf("create tailer: %w", err)
	}
	if err := t.Start(ctx); err != nil {
		t.Stop()
		m.active.Store(false)
		return fmt.Errorf("start tailer: %w", err)
	}

	m.tail = t
	m.done = make(chan struct{})
	m.stopping.Store(false)
	m.active.Store(true)
	log.Printf("monitor: tailing %s (backlog %d lines)", logPath, m.cfg.Backlog)

	go m.consume()
	return nil
}

// consume drains the tail channel. One line is fully applied before the
// next is read.
func (m *Monitor) consume() {
	defer close(m.done)

	for line := range m.tail.Lines() {
		if line.Err != nil {
			log.Printf("monitor: tail error: %v", line.Err)
			continue
		}
		m.Ingest(line.Text)
	}

	// Channel closed: either a deliberate Stop or the source vanished.
	m.active.Store(false)
	if !m.stopping.Load() {
		log.Printf("monitor: eve tail exited, monitoring inactive (external restart required)")
	}
}

// Stop terminates the tail subscription and marks monitoring inactive.
// Idempotent.
func (m *Monitor) Stop() {
	if m.tail == nil {
		m.active.Store(false)
		return
	}
	if m.stopping.Swap(true) {
		return
	}
	m.tail.Stop()
	<-m.done
	m.active.Store(false)
	log.Printf("monitor: stopped")
}

// Active reports whether the monitor is currently tailing.
func (m *Monitor) Active() bool {
	return m.active.Load()
}

// Ingest classifies a single eve line. Unparsable lines are silently
// discarded; parse failure never halts ingestion of subsequent lines.
func (m *Monitor) Ingest(line string) {
	rec, ok := parseEVELine(line)
	if !ok {
		metrics.MonitorLinesDiscarded.Inc()
		return
	}

	ts := rec.recordTime(time.Now())

	if rec.EventType == "alert" {
		m.ingestAlert(rec.toAlert(ts))
		return
	}
	m.ingestEvent(rec.toEvent(ts))
}

func (m *Monitor) ingestAlert(alert models.Alert) {
	m.mu.Lock()
	m.lastUpdate = alert.Timestamp
	m.alerts = prepend(m.alerts, alert, m.cfg.MaxAlerts)
	m.totalAlerts++
	m.bySeverity[alert.Severity]++
	m.byCategory[alert.Category]++
	m.mu.Unlock()

	metrics.MonitorAlertsTotal.WithLabelValues(strconv.Itoa(int(alert.Severity))).Inc()

	if alert.Severity == models.SeverityHigh {
		log.Printf("monitor: HIGH SEVERITY ALERT: %s [%s] %s:%d -> %s:%d",
			alert.Signature, alert.Category,
			alert.SrcIP, alert.SrcPort, alert.DestIP, alert.DestPort)
	}

	if m.subscriber != nil {
		m.subscriber(alert)
	}
}

func (m *Monitor) ingestEvent(event models.Event) {
	m.mu.Lock()
	m.lastUpdate = event.Timestamp
	m.events = prepend(m.events, event, m.cfg.MaxEvents)
	m.totalEvents++
	m.mu.Unlock()

	metrics.MonitorEventsTotal.WithLabelValues(string(event.Type)).Inc()
}

// prepend inserts v at the front of s, evicting the oldest element (FIFO
// at the tail) once the cap is exceeded. len(result) <= max always holds.
func prepend[T any](s []T, v T, max int) []T {
	s = append(s, v)
	copy(s[1:], s)
	s[0] = v
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// AlertFilter restricts GetAlerts results. Zero values mean no restriction
// on that dimension.
type AlertFilter struct {
	Severity models.Severity // equality; 0 = any
	Category string          // equality; "" = any
	Since    time.Time       // timestamp >= Since; zero = any
}

// GetAlerts returns up to limit most-recent alerts matching all supplied
// filters, most-recent-first.
func (m *Monitor) GetAlerts(limit int, filter AlertFilter) []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = len(m.alerts)
	}

	out := make([]models.Alert, 0, limit)
	for _, a := range m.alerts {
		if filter.Severity != 0 && a.Severity != filter.Severity {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if !filter.Since.IsZero() && a.Timestamp.Before(filter.Since) {
			continue
		}
		out = append(out, a)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// GetEvents returns up to limit most-recent events, optionally filtered by
// event type.
func (m *Monitor) GetEvents(limit int, eventType models.EventType) []models.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = len(m.events)
	}

	out := make([]models.Event, 0, limit)
	for _, e := range m.events {
		if eventType != "" && e.Type != eventType {
			continue
		}
		out = append(out, e)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Stats is a point-in-time snapshot of the monitor counters.
type Stats struct {
	TotalAlerts      int64            `json:"total_alerts"`
	TotalEvents      int64            `json:"total_events"`
	AlertsBySeverity map[int]int64    `json:"alerts_by_severity"`
	AlertsByCategory map[string]int64 `json:"alerts_by_category"`
	AlertHistory     int              `json:"alert_history"`
	EventHistory     int              `json:"event_history"`
	LastUpdate       time.Time        `json:"last_update"`
	Active           bool             `json:"monitoring_active"`
}

// Stats returns a snapshot copy of the running counters plus current
// history lengths.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		TotalAlerts:      m.totalAlerts,
		TotalEvents:      m.totalEvents,
		AlertsBySeverity: make(map[int]int64, len(m.bySeverity)),
		AlertsByCategory: make(map[string]int64, len(m.byCategory)),
		AlertHistory:     len(m.alerts),
		EventHistory:     len(m.events),
		LastUpdate:       m.lastUpdate,
		Active:           m.active.Load(),
	}
	for sev, n := range m.bySeverity {
		s.AlertsBySeverity[int(sev)] = n
	}
	for cat, n := range m.byCategory {
		s.AlertsByCategory[cat] = n
	}
	return s
}

// CategoryCount pairs a category with its accumulated alert count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Summary is the rollup returned by Summary().
type Summary struct {
	AlertsLastHour int             `json:"alerts_last_hour"`
	AlertsLast24h  int             `json:"alerts_last_24h"`
	HighSeverity   int             `json:"high_severity_retained"`
	TotalAlerts    int64           `json:"total_alerts"`
	TopCategories  []CategoryCount `json:"top_categories"`
	LastAlert      *models.Alert   `json:"last_alert,omitempty"`
}

// topCategoryCount is the number of categories Summary ranks.
const topCategoryCount = 5

// Summary derives a rollup from the current alert history and wall clock.
func (m *Monitor) Summary() Summary {
	return m.summaryAt(time.Now())
}

// summaryAt computes the summary against a fixed "now" (useful for tests).
func (m *Monitor) summaryAt(now time.Time) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{TotalAlerts: m.totalAlerts}

	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-24 * time.Hour)

	for _, a := range m.alerts {
		if !a.Timestamp.Before(hourAgo) {
			s.AlertsLastHour++
		}
		if !a.Timestamp.Before(dayAgo) {
			s.AlertsLast24h++
		}
		if a.Severity == models.SeverityHigh {
			s.HighSeverity++
		}
	}

	cats := make([]CategoryCount, 0, len(m.byCategory))
	for cat, n := range m.byCategory {
		cats = append(cats, CategoryCount{Category: cat, Count: n})
	}
	// Count descending, lexicographic on ties so the ranking is
	// deterministic regardless of map iteration order.
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Count != cats[j].Count {
			return cats[i].Count > cats[j].Count
		}
		return cats[i].Category < cats[j].Category
	})
	if len(cats) > topCategoryCount {
		cats = cats[:topCategoryCount]
	}
	s.TopCategories = cats

	if len(m.alerts) > 0 {
		last := m.alerts[0]
		s.LastAlert = &last
	}
	return s
}

// Clear resets both history buffers and all counters, preserving only the
// monitoring-active flag.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alerts = nil
	m.events = nil
	m.totalAlerts = 0
	m.totalEvents = 0
	m.bySeverity = make(map[models.Severity]int64)
	m.byCategory = make(map[string]int64)
	m.lastUpdate = time.Time{}
}
