package monitor

import (
	"encoding/json"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/models"
)

// suricataTimeLayout is the timestamp format Suricata writes to eve.json.
const suricataTimeLayout = "2006-01-02T15:04:05.999999-0700"

// Defaults applied when an alert record is missing classification fields.
const (
	defaultCategory  = "Unknown"
	defaultSignature = "Unknown Alert"
)

// eveRecord is one line of eve.json. Only the fields the monitor cares
// about are decoded; everything else is ignored.
type eveRecord struct {
	Timestamp string         `json:"timestamp"`
	EventType string         `json:"event_type"`
	SrcIP     string         `json:"src_ip"`
	SrcPort   int            `json:"src_port"`
	DestIP    string         `json:"dest_ip"`
	DestPort  int            `json:"dest_port"`
	Proto     string         `json:"proto"`
	AppProto  string         `json:"app_proto"`
	Alert     *eveAlert      `json:"alert"`
	HTTP      *eveHTTP       `json:"http"`
	DNS       *eveDNS        `json:"dns"`
	Anomaly   *eveAnomaly    `json:"anomaly"`
	Metadata  map[string]any `json:"metadata"`
	Payload   string         `json:"payload_printable"`
}

type eveAlert struct {
	Severity    int    `json:"severity"`
	Category    string `json:"category"`
	Signature   string `json:"signature"`
	SignatureID int64  `json:"signature_id"`
}

type eveHTTP struct {
	Hostname string `json:"hostname"`
	URL      string `json:"url"`
	Method   string `json:"http_method"`
	Status   int    `json:"status"`
}

type eveDNS struct {
	Query string `json:"rrname"`
	Type  string `json:"rrtype"`
	Rcode string `json:"rcode"`
}

type eveAnomaly struct {
	Type  string `json:"type"`
	Event string `json:"event"`
}

// parseEVELine decodes one eve.json line. Returns false for anything that
// is not a JSON object (partial writes, corruption); callers discard such
// lines silently.
func parseEVELine(line string) (*eveRecord, bool) {
	if len(line) == 0 || line[0] != '{' {
		return nil, false
	}
	var rec eveRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// recordTime returns the record's own timestamp, falling back to now when
// absent or unparsable.
func (r *eveRecord) recordTime(now time.Time) time.Time {
	if r.Timestamp == "" {
		return now
	}
	if ts, err := time.Parse(suricataTimeLayout, r.Timestamp); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
		return ts
	}
	return now
}

// toAlert constructs an Alert from an alert-tagged record, applying the
// documented defaults for missing classification fields.
func (r *eveRecord) toAlert(ts time.Time) models.Alert {
	a := models.Alert{
		Timestamp: ts,
		Severity:  models.SeverityLow,
		Category:  defaultCategory,
		Signature: defaultSignature,
		SrcIP:     r.SrcIP,
		SrcPort:   r.SrcPort,
		DestIP:    r.DestIP,
		DestPort:  r.DestPort,
		Proto:     r.Proto,
		AppProto:  r.AppProto,
		Metadata:  r.Metadata,
		Payload:   r.Payload,
	}
	if r.Alert != nil {
		if sev := models.Severity(r.Alert.Severity); sev.Valid() {
			a.Severity = sev
		}
		if r.Alert.Category != "" {
			a.Category = r.Alert.Category
		}
		if r.Alert.Signature != "" {
			a.Signature = r.Alert.Signature
		}
		a.SignatureID = r.Alert.SignatureID
	}
	return a
}

// toEvent constructs an Event with type-specific detail extraction for the
// known tags. Unknown tags still produce a minimal Event.
func (r *eveRecord) toEvent(ts time.Time) models.Event {
	e := models.Event{
		Timestamp: ts,
		Type:      models.EventType(r.EventType),
		SrcIP:     r.SrcIP,
		DestIP:    r.DestIP,
		Proto:     r.Proto,
		AppProto:  r.AppProto,
	}

	switch e.Type {
	case models.EventTypeHTTP:
		if r.HTTP != nil {
			e.HTTP = &models.HTTPDetail{
				Hostname: r.HTTP.Hostname,
				URL:      r.HTTP.URL,
				Method:   r.HTTP.Method,
				Status:   r.HTTP.Status,
			}
		}
	case models.EventTypeDNS:
		if r.DNS != nil {
			e.DNS = &models.DNSDetail{
				Query: r.DNS.Query,
				Type:  r.DNS.Type,
				Rcode: r.DNS.Rcode,
			}
		}
	case models.EventTypeAnomaly:
		if r.Anomaly != nil {
			e.Anomaly = &models.AnomalyDetail{
				Type:        r.Anomaly.Type,
				Description: r.Anomaly.Event,
			}
		}
	}
	return e
}
