package models

import "time"

// DefaultCameraID is used when an edge device does not identify itself.
const DefaultCameraID = "camera1"

// LivenessThreshold is the maximum age of the last frame for a camera to
// count as alive. Fixed by design: tolerates normal network jitter while
// detecting a dead uplink within one polling cycle.
const LivenessThreshold = 10 * time.Second

// CameraStatus holds the status fields a camera reports alongside frames.
// Zero values mean "not reported yet"; string fields default to "Unknown"
// on first contact.
type CameraStatus struct {
	MotionDetected   bool      `json:"motion_detected"`
	LastMotionTime   float64   `json:"last_motion_time"`
	Recording        bool      `json:"recording"`
	CPUTemp          string    `json:"cpu_temp"`
	Uptime           string    `json:"uptime"`
	WiFiSignalDBm    *int      `json:"wifi_signal_dbm"`
	WiFiQuality      string    `json:"wifi_signal_quality"`
	NextcloudEnabled bool      `json:"nextcloud_enabled"`
	PushoverEnabled  bool      `json:"pushover_enabled"`
	LastUpdate       time.Time `json:"last_update"`
}

// WiFiPercent maps a WiFi signal strength in dBm to a coarse quality
// percentage bucket.
func WiFiPercent(dbm int) int {
	switch {
	case dbm >= -30:
		return 100
	case dbm >= -67:
		return 70
	case dbm >= -70:
		return 50
	case dbm >= -80:
		return 30
	default:
		return 10
	}
}

// DoorState is the single global door-sensor record. Overwritten wholesale
// by each webhook; no history.
type DoorState struct {
	State       string    `json:"door_state"`
	Timestamp   string    `json:"timestamp"`
	Device      string    `json:"device"`
	LastUpdated time.Time `json:"last_updated"`
}
