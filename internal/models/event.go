package models

import "time"

// EventType tags a non-alert eve.json record. The set is open: unknown
// tags still produce a minimal Event.
type EventType string

// Known event types with dedicated detail extraction.
const (
	EventTypeHTTP    EventType = "http"
	EventTypeDNS     EventType = "dns"
	EventTypeAnomaly EventType = "anomaly"
	EventTypeOther   EventType = "other"
)

// Event is an informational (non-alert) record from the eve log.
// Immutable once constructed.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"event_type"`
	SrcIP     string    `json:"src_ip,omitempty"`
	DestIP    string    `json:"dest_ip,omitempty"`
	Proto     string    `json:"proto,omitempty"`
	AppProto  string    `json:"app_proto,omitempty"`

	// At most one of the detail payloads is set, matching Type.
	HTTP    *HTTPDetail    `json:"http,omitempty"`
	DNS     *DNSDetail     `json:"dns,omitempty"`
	Anomaly *AnomalyDetail `json:"anomaly,omitempty"`
}

// HTTPDetail carries HTTP transaction metadata.
type HTTPDetail struct {
	Hostname string `json:"hostname,omitempty"`
	URL      string `json:"url,omitempty"`
	Method   string `json:"http_method,omitempty"`
	Status   int    `json:"status,omitempty"`
}

// DNSDetail carries DNS query metadata.
type DNSDetail struct {
	Query string `json:"rrname,omitempty"`
	Type  string `json:"rrtype,omitempty"`
	Rcode string `json:"rcode,omitempty"`
}

// AnomalyDetail carries Suricata anomaly metadata.
type AnomalyDetail struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"event,omitempty"`
}
