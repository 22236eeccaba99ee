// Package models defines the core data types shared across CamSentry.
package models

import "time"

// Severity is the alert priority. Lower is more severe.
type Severity int

// Severity levels as emitted by Suricata.
const (
	SeverityHigh   Severity = 1
	SeverityMedium Severity = 2
	SeverityLow    Severity = 3
)

// String returns a human-readable severity label.
func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the three defined levels.
func (s Severity) Valid() bool {
	return s >= SeverityHigh && s <= SeverityLow
}

// Alert is a classified, severity-ranked security event derived from a
// single eve.json record. Immutable once constructed.
type Alert struct {
	Timestamp   time.Time      `json:"timestamp"`
	Severity    Severity       `json:"severity"`
	Category    string         `json:"category"`
	Signature   string         `json:"signature"`
	SignatureID int64          `json:"signature_id"`
	SrcIP       string         `json:"src_ip"`
	SrcPort     int            `json:"src_port"`
	DestIP      string         `json:"dest_ip"`
	DestPort    int            `json:"dest_port"`
	Proto       string         `json:"proto"`
	AppProto    string         `json:"app_proto,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Payload     string         `json:"payload,omitempty"` // printable payload excerpt
}
