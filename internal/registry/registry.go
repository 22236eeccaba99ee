// Package registry holds the in-memory camera state: latest frame, latest
// status, and liveness per camera, plus the single-slot command queue.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/models"
)

// ErrEmptyFrame is returned when a frame push carries no payload.
var ErrEmptyFrame = errors.New("empty frame payload")

// Camera is the per-camera record. Created lazily on first contact, never
// destroyed; no persistence across restarts.
type Camera struct {
	ID            string
	Frame         []byte
	FrameCount    uint64
	LastFrameTime time.Time
	Status        models.CameraStatus
}

// Registry is the camera-id keyed store. All methods are safe for
// concurrent use; each mutation is a single lock-held read-modify-write.
type Registry struct {
	mu      sync.RWMutex
	cameras map[string]*Camera
	now     func() time.Time
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		cameras: make(map[string]*Camera),
		now:     time.Now,
	}
}

func (r *Registry) getOrCreate(id string) *Camera {
	if id == "" {
		id = models.DefaultCameraID
	}
	cam, ok := r.cameras[id]
	if !ok {
		cam = &Camera{
			ID: id,
			Status: models.CameraStatus{
				CPUTemp:     "Unknown",
				Uptime:      "Unknown",
				WiFiQuality: "Unknown",
			},
		}
		r.cameras[id] = cam
	}
	return cam
}

// UpdateFrame replaces the camera's latest frame wholesale and bumps the
// frame counter. Rejects empty payloads without mutating any state.
func (r *Registry) UpdateFrame(id string, frame []byte) error {
	if len(frame) == 0 {
		return ErrEmptyFrame
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cam := r.getOrCreate(id)
	cam.Frame = frame
	cam.FrameCount++
	cam.LastFrameTime = r.now()
	return nil
}

// StatusUpdate carries the status fields of one push. Pointer fields
// distinguish "not supplied" from zero values so unsupplied fields retain
// their prior values.
type StatusUpdate struct {
	MotionDetected   *bool    `json:"motion_detected"`
	LastMotionTime   *float64 `json:"last_motion_time"`
	Recording        *bool    `json:"recording"`
	CPUTemp          *string  `json:"cpu_temp"`
	Uptime           *string  `json:"uptime"`
	WiFiSignalDBm    *int     `json:"wifi_signal_dbm"`
	WiFiQuality      *string  `json:"wifi_signal_quality"`
	NextcloudEnabled *bool    `json:"nextcloud_enabled"`
	PushoverEnabled  *bool    `json:"pushover_enabled"`
}

// UpdateStatus merges the supplied fields into the camera record and
// returns a copy of the resulting status.
func (r *Registry) UpdateStatus(id string, up StatusUpdate) models.CameraStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam := r.getOrCreate(id)
	st := &cam.Status

	if up.MotionDetected != nil {
		st.MotionDetected = *up.MotionDetected
	}
	if up.LastMotionTime != nil {
		st.LastMotionTime = *up.LastMotionTime
	}
	if up.Recording != nil {
		st.Recording = *up.Recording
	}
	if up.CPUTemp != nil {
		st.CPUTemp = *up.CPUTemp
	}
	if up.Uptime != nil {
		st.Uptime = *up.Uptime
	}
	if up.WiFiSignalDBm != nil {
		st.WiFiSignalDBm = up.WiFiSignalDBm
	}
	if up.WiFiQuality != nil {
		st.WiFiQuality = *up.WiFiQuality
	}
	if up.NextcloudEnabled != nil {
		st.NextcloudEnabled = *up.NextcloudEnabled
	}
	if up.PushoverEnabled != nil {
		st.PushoverEnabled = *up.PushoverEnabled
	}
	st.LastUpdate = r.now()

	return *st
}

// Frame returns the camera's latest frame, or nil when the camera is
// unknown or has never sent one.
func (r *Registry) Frame(id string) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, ok := r.cameras[id]
	if !ok {
		return nil
	}
	return cam.Frame
}

// Status returns a copy of the camera's status. Unknown cameras return a
// zero status and false.
func (r *Registry) Status(id string) (models.CameraStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, ok := r.cameras[id]
	if !ok {
		return models.CameraStatus{}, false
	}
	return cam.Status, true
}

// IsAlive reports whether the camera sent a frame within the liveness
// threshold. A camera with no frames ever received is never alive.
func (r *Registry) IsAlive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, ok := r.cameras[id]
	if !ok || cam.LastFrameTime.IsZero() {
		return false
	}
	return r.now().Sub(cam.LastFrameTime) < models.LivenessThreshold
}

// Snapshot is a point-in-time diagnostic view of one camera.
type Snapshot struct {
	ID           string              `json:"camera_id"`
	Alive        bool                `json:"alive"`
	FrameCount   uint64              `json:"frame_count"`
	FrameBytes   int                 `json:"frame_bytes"`
	LastFrameAge float64             `json:"last_frame_age_seconds"`
	Status       models.CameraStatus `json:"status"`
}

// Snapshots returns diagnostics for every known camera.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	out := make([]Snapshot, 0, len(r.cameras))
	for _, cam := range r.cameras {
		snap := Snapshot{
			ID:         cam.ID,
			FrameCount: cam.FrameCount,
			FrameBytes: len(cam.Frame),
			Status:     cam.Status,
		}
		if !cam.LastFrameTime.IsZero() {
			age := now.Sub(cam.LastFrameTime)
			snap.LastFrameAge = age.Seconds()
			snap.Alive = age < models.LivenessThreshold
		}
		out = append(out, snap)
	}
	return out
}

// Frames returns the latest frame for every camera that has one, keyed by
// camera id. Used for the catch-up push to newly connected sessions.
func (r *Registry) Frames() map[string][]byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]byte, len(r.cameras))
	for id, cam := range r.cameras {
		if len(cam.Frame) > 0 {
			out[id] = cam.Frame
		}
	}
	return out
}

// FrameCount returns the camera's frame counter (diagnostics only).
func (r *Registry) FrameCount(id string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cam, ok := r.cameras[id]
	if !ok {
		return 0
	}
	return cam.FrameCount
}
