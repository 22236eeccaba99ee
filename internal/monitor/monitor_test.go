package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/models"
)

func alertLine(ts time.Time, severity int, category, signature string) string {
	return fmt.Sprintf(`{"timestamp":%q,"event_type":"alert","src_ip":"10.0.0.5","src_port":44321,"dest_ip":"192.168.1.10","dest_port":80,"proto":"TCP","alert":{"severity":%d,"category":%q,"signature":%q,"signature_id":2100498}}`,
		ts.Format(suricataTimeLayout), severity, category, signature)
}

func TestIngestAlertCounters(t *testing.T) {
	m := New(Config{})
	now := time.Now()

	m.Ingest(alertLine(now, 1, "Attempted Admin Privilege Gain", "GPL ATTACK_RESPONSE id check"))

	stats := m.Stats()
	if stats.TotalAlerts != 1 {
		t.Fatalf("total alerts = %d, want 1", stats.TotalAlerts)
	}
	if stats.AlertsBySeverity[1] != 1 {
		t.Errorf("severity 1 bucket = %d, want 1", stats.AlertsBySeverity[1])
	}
	if stats.AlertsBySeverity[2] != 0 || stats.AlertsBySeverity[3] != 0 {
		t.Errorf("other severity buckets changed: %v", stats.AlertsBySeverity)
	}
	if stats.AlertsByCategory["Attempted Admin Privilege Gain"] != 1 {
		t.Errorf("category bucket = %v", stats.AlertsByCategory)
	}
}

func TestIngestAlertDefaults(t *testing.T) {
	m := New(Config{})

	// Alert record with no alert object at all.
	m.Ingest(`{"timestamp":"2026-03-01T10:00:00.000000+0000","event_type":"alert","src_ip":"1.2.3.4"}`)

	alerts := m.GetAlerts(1, AlertFilter{})
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	a := alerts[0]
	if a.Severity != models.SeverityLow {
		t.Errorf("severity = %d, want %d", a.Severity, models.SeverityLow)
	}
	if a.Category != "Unknown" {
		t.Errorf("category = %q, want Unknown", a.Category)
	}
	if a.Signature != "Unknown Alert" {
		t.Errorf("signature = %q, want Unknown Alert", a.Signature)
	}
}

func TestUnparsableLinesDiscarded(t *testing.T) {
	m := New(Config{})
	now := time.Now()

	m.Ingest(`{"truncated`) // partial write
	m.Ingest(`garbage not json`)
	m.Ingest("")
	m.Ingest(alertLine(now, 3, "Misc activity", "SURICATA STREAM excessive retransmissions"))

	stats := m.Stats()
	if stats.TotalAlerts != 1 {
		t.Fatalf("total alerts = %d, want 1", stats.TotalAlerts)
	}
	if stats.TotalEvents != 0 {
		t.Fatalf("total events = %d, want 0", stats.TotalEvents)
	}
}

func TestBoundedHistoryEviction(t *testing.T) {
	m := New(Config{MaxAlerts: 3, MaxEvents: 2})
	now := time.Now()

	for i := 0; i < 5; i++ {
		m.Ingest(alertLine(now.Add(time.Duration(i)*time.Second), 3, "Misc activity", fmt.Sprintf("sig-%d", i)))
	}

	alerts := m.GetAlerts(0, AlertFilter{})
	if len(alerts) != 3 {
		t.Fatalf("history length = %d, want 3", len(alerts))
	}
	// Most recent first; oldest two evicted.
	want := []string{"sig-4", "sig-3", "sig-2"}
	for i, a := range alerts {
		if a.Signature != want[i] {
			t.Errorf("alerts[%d].Signature = %q, want %q", i, a.Signature, want[i])
		}
	}

	for i := 0; i < 4; i++ {
		m.Ingest(fmt.Sprintf(`{"event_type":"dns","dns":{"rrname":"host%d.example.com","rrtype":"A"}}`, i))
	}
	events := m.GetEvents(0, "")
	if len(events) != 2 {
		t.Fatalf("event history length = %d, want 2", len(events))
	}
	if events[0].DNS == nil || events[0].DNS.Query != "host3.example.com" {
		t.Errorf("events[0] = %+v, want host3 query first", events[0])
	}
}

func TestEventDetailExtraction(t *testing.T) {
	m := New(Config{})

	m.Ingest(`{"event_type":"http","src_ip":"10.0.0.2","dest_ip":"93.184.216.34","proto":"TCP","app_proto":"http","http":{"hostname":"example.com","url":"/index.html","http_method":"GET","status":200}}`)
	m.Ingest(`{"event_type":"anomaly","anomaly":{"type":"decode","event":"APPLAYER_DETECT_PROTOCOL_ONLY_ONE_DIRECTION"}}`)
	m.Ingest(`{"event_type":"flow","src_ip":"10.0.0.2","dest_ip":"10.0.0.3","proto":"UDP"}`)

	events := m.GetEvents(0, "")
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	// Most recent first: flow, anomaly, http.
	if events[2].HTTP == nil || events[2].HTTP.Hostname != "example.com" || events[2].HTTP.Status != 200 {
		t.Errorf("http detail = %+v", events[2].HTTP)
	}
	if events[1].Anomaly == nil || events[1].Anomaly.Type != "decode" {
		t.Errorf("anomaly detail = %+v", events[1].Anomaly)
	}
	// Unknown tag produces a minimal event.
	if events[0].Type != "flow" || events[0].HTTP != nil || events[0].DNS != nil || events[0].Anomaly != nil {
		t.Errorf("flow event = %+v, want minimal", events[0])
	}

	dnsOnly := m.GetEvents(0, models.EventTypeHTTP)
	if len(dnsOnly) != 1 {
		t.Errorf("http filter returned %d events, want 1", len(dnsOnly))
	}
}

func TestGetAlertsFilters(t *testing.T) {
	m := New(Config{})
	now := time.Now()

	m.Ingest(alertLine(now.Add(-2*time.Hour), 1, "Web Application Attack", "old high"))
	m.Ingest(alertLine(now.Add(-30*time.Minute), 2, "Misc activity", "recent medium"))
	m.Ingest(alertLine(now.Add(-5*time.Minute), 2, "Web Application Attack", "recent medium web"))

	bySev := m.GetAlerts(0, AlertFilter{Severity: models.SeverityMedium})
	if len(bySev) != 2 {
		t.Errorf("severity filter returned %d, want 2", len(bySev))
	}

	byCat := m.GetAlerts(0, AlertFilter{Category: "Web Application Attack"})
	if len(byCat) != 2 {
		t.Errorf("category filter returned %d, want 2", len(byCat))
	}

	since := m.GetAlerts(0, AlertFilter{Since: now.Add(-time.Hour)})
	if len(since) != 2 {
		t.Errorf("since filter returned %d, want 2", len(since))
	}

	combined := m.GetAlerts(0, AlertFilter{Severity: models.SeverityMedium, Category: "Web Application Attack"})
	if len(combined) != 1 || combined[0].Signature != "recent medium web" {
		t.Errorf("combined filter = %+v", combined)
	}

	limited := m.GetAlerts(1, AlertFilter{})
	if len(limited) != 1 || limited[0].Signature != "recent medium web" {
		t.Errorf("limit = %+v, want most recent only", limited)
	}
}

func TestSummary(t *testing.T) {
	m := New(Config{})
	now := time.Now()

	m.Ingest(alertLine(now.Add(-2*time.Hour), 1, "Attempted Admin Privilege Gain", "two hours ago"))
	m.Ingest(alertLine(now.Add(-30*time.Minute), 3, "Misc activity", "half hour ago"))
	m.Ingest(alertLine(now.Add(-25*time.Hour), 3, "Misc activity", "yesterday"))

	s := m.summaryAt(now)

	if s.AlertsLastHour != 1 {
		t.Errorf("alerts_last_hour = %d, want 1", s.AlertsLastHour)
	}
	if s.AlertsLast24h != 2 {
		t.Errorf("alerts_last_24h = %d, want 2", s.AlertsLast24h)
	}
	if s.HighSeverity != 1 {
		t.Errorf("high severity retained = %d, want 1", s.HighSeverity)
	}
	if s.TotalAlerts != 3 {
		t.Errorf("total alerts = %d, want 3", s.TotalAlerts)
	}
	if s.LastAlert == nil || s.LastAlert.Signature != "yesterday" {
		t.Errorf("last alert = %+v, want most recent ingest", s.LastAlert)
	}
}

func TestSummaryTopCategoriesDeterministic(t *testing.T) {
	m := New(Config{})
	now := time.Now()

	m.Ingest(alertLine(now, 3, "zeta", "a"))
	m.Ingest(alertLine(now, 3, "alpha", "b"))
	m.Ingest(alertLine(now, 3, "alpha", "c"))
	m.Ingest(alertLine(now, 3, "beta", "d"))
	for _, cat := range []string{"c1", "c2", "c3", "c4"} {
		m.Ingest(alertLine(now, 3, cat, "x"))
	}

	s := m.summaryAt(now)
	if len(s.TopCategories) != topCategoryCount {
		t.Fatalf("top categories length = %d, want %d", len(s.TopCategories), topCategoryCount)
	}
	if s.TopCategories[0].Category != "alpha" || s.TopCategories[0].Count != 2 {
		t.Errorf("top category = %+v, want alpha:2", s.TopCategories[0])
	}
	// Equal counts rank lexicographically.
	want := []string{"alpha", "beta", "c1", "c2", "c3"}
	for i, cc := range s.TopCategories {
		if cc.Category != want[i] {
			t.Errorf("rank %d = %q, want %q", i, cc.Category, want[i])
		}
	}
}

func TestSummaryEmpty(t *testing.T) {
	m := New(Config{})
	s := m.Summary()
	if s.LastAlert != nil {
		t.Errorf("last alert = %+v, want nil", s.LastAlert)
	}
	if s.AlertsLastHour != 0 || s.TotalAlerts != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestClearPreservesActiveFlag(t *testing.T) {
	m := New(Config{})
	m.active.Store(true)
	m.Ingest(alertLine(time.Now(), 2, "Misc activity", "sig"))

	m.Clear()

	stats := m.Stats()
	if stats.TotalAlerts != 0 || stats.TotalEvents != 0 {
		t.Errorf("counters not cleared: %+v", stats)
	}
	if stats.AlertHistory != 0 || stats.EventHistory != 0 {
		t.Errorf("histories not cleared: %+v", stats)
	}
	if !stats.Active {
		t.Error("active flag should be preserved by Clear")
	}
}

func TestSubscriberReceivesAlerts(t *testing.T) {
	m := New(Config{})
	var got []models.Alert
	m.Subscribe(func(a models.Alert) {
		got = append(got, a)
	})

	m.Ingest(alertLine(time.Now(), 2, "Misc activity", "sub test"))
	m.Ingest(`{"event_type":"dns","dns":{"rrname":"example.com"}}`)

	if len(got) != 1 {
		t.Fatalf("subscriber received %d alerts, want 1", len(got))
	}
	if got[0].Signature != "sub test" {
		t.Errorf("subscriber alert = %+v", got[0])
	}
}

func TestStartMissingPath(t *testing.T) {
	m := New(Config{})
	err := m.Start(context.Background(), filepath.Join(t.TempDir(), "eve.json"))
	if err == nil {
		t.Fatal("expected error for missing eve log")
	}
	if m.Active() {
		t.Error("monitor should be inactive after failed start")
	}
}

func TestStartTailAndStop(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "eve.json")
	backlog := alertLine(time.Now(), 2, "Misc activity", "backlog alert") + "\n"
	if err := os.WriteFile(tmpFile, []byte(backlog), 0644); err != nil {
		t.Fatalf("write eve log: %v", err)
	}

	m := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx, tmpFile); err != nil {
		t.Fatalf("start monitor: %v", err)
	}
	if !m.Active() {
		t.Fatal("monitor should be active after start")
	}

	// Backlog replay should produce the alert.
	deadline := time.After(3 * time.Second)
	for m.Stats().TotalAlerts == 0 {
		select {
		case <-deadline:
			t.Fatal("backlog alert never ingested")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Append a live line.
	f, err := os.OpenFile(tmpFile, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open eve log: %v", err)
	}
	f.WriteString(alertLine(time.Now(), 1, "Attempted Admin Privilege Gain", "live alert") + "\n")
	f.Close()

	deadline = time.After(3 * time.Second)
	for m.Stats().TotalAlerts < 2 {
		select {
		case <-deadline:
			t.Fatal("live alert never ingested")
		case <-time.After(20 * time.Millisecond):
		}
	}

	m.Stop()
	if m.Active() {
		t.Error("monitor should be inactive after Stop")
	}
	m.Stop() // idempotent
}

func TestSourceRemovalMarksInactive(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "eve.json")
	if err := os.WriteFile(tmpFile, []byte(""), 0644); err != nil {
		t.Fatalf("write eve log: %v", err)
	}

	m := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx, tmpFile); err != nil {
		t.Fatalf("start monitor: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	os.Remove(tmpFile)

	deadline := time.After(3 * time.Second)
	for m.Active() {
		select {
		case <-deadline:
			t.Fatal("monitor still active after source removal")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
