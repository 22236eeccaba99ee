// Package integrations drives the outbound side effects of camera activity:
// media uploads to Nextcloud and push notifications via Pushover. All
// actions are best effort. Failures are logged and reported as values,
// never as errors the ingestion path would have to handle.
package integrations

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/metrics"
	"github.com/good-yellow-bee/camsentry/internal/models"
)

const (
	// filenameTimeLayout produces motion_20060102_150405.jpg style names.
	filenameTimeLayout = "20060102_150405"

	DefaultSaveInterval   = 5 * time.Second
	DefaultNotifyInterval = 60 * time.Second
	DefaultMotionFolder   = "motion_captures"
	DefaultVideoFolder    = "recordings"
)

// Action result statuses reported back to the camera.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
)

// Uploader stores media files remotely.
type Uploader interface {
	Upload(ctx context.Context, dir, filename string, data []byte) error
}

// Notifier delivers push notifications.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// ManagerConfig holds interval and destination settings for the manager.
type ManagerConfig struct {
	SaveInterval   time.Duration // minimum gap between uploads per camera
	NotifyInterval time.Duration // minimum gap between notifications per key
	MotionFolder   string        // remote folder for motion snapshots
	VideoFolder    string        // remote folder for recordings
}

// SetDefaults fills in zero-valued fields.
func (c *ManagerConfig) SetDefaults() {
	if c.SaveInterval <= 0 {
		c.SaveInterval = DefaultSaveInterval
	}
	if c.NotifyInterval <= 0 {
		c.NotifyInterval = DefaultNotifyInterval
	}
	if c.MotionFolder == "" {
		c.MotionFolder = DefaultMotionFolder
	}
	if c.VideoFolder == "" {
		c.VideoFolder = DefaultVideoFolder
	}
}

// MotionResult reports what happened to one motion snapshot.
type MotionResult struct {
	Status   string // "ok" or "skipped"
	Filename string
	Uploaded bool
	Notified bool
}

// VideoResult reports what happened to one recording upload.
type VideoResult struct {
	Status   string
	Filename string
	Uploaded bool
	Size     int
}

// Manager coordinates uploads and notifications with per-camera throttling.
// Either uploader or notifier may be nil when that integration is disabled.
type Manager struct {
	uploader Uploader
	notifier Notifier
	config   ManagerConfig

	saveThrottle   *Throttle
	notifyThrottle *Throttle

	now func() time.Time
}

// NewManager creates a manager. A nil uploader or notifier disables the
// corresponding action.
func NewManager(uploader Uploader, notifier Notifier, config ManagerConfig) *Manager {
	config.SetDefaults()
	return &Manager{
		uploader:       uploader,
		notifier:       notifier,
		config:         config,
		saveThrottle:   NewThrottle(config.SaveInterval),
		notifyThrottle: NewThrottle(config.NotifyInterval),
		now:            time.Now,
	}
}

// UploadEnabled reports whether a Nextcloud uploader is configured.
func (m *Manager) UploadEnabled() bool { return m.uploader != nil }

// NotifyEnabled reports whether a Pushover notifier is configured.
func (m *Manager) NotifyEnabled() bool { return m.notifier != nil }

// MotionImage handles a motion snapshot: upload it and send a notification,
// each subject to its own per-camera interval.
func (m *Manager) MotionImage(ctx context.Context, cameraID string, image []byte) MotionResult {
	result := MotionResult{
		Status:   StatusOK,
		Filename: fmt.Sprintf("motion_%s.jpg", m.now().Format(filenameTimeLayout)),
	}

	if m.uploader != nil {
		if m.saveThrottle.Allow(cameraID) {
			result.Uploaded = m.doUpload(ctx, cameraID, m.config.MotionFolder, result.Filename, image)
		} else {
			metrics.IntegrationActions.WithLabelValues("upload", "skipped").Inc()
			result.Status = StatusSkipped
		}
	}

	// Notification is fire-and-forget with its own throttle. The result
	// only reflects whether one was dispatched.
	result.Notified = m.notify(cameraID,
		"Motion Detected",
		fmt.Sprintf("Motion detected on %s at %s", cameraID, m.now().Format("2006-01-02 15:04:05")))

	return result
}

// Video handles a finished recording upload. Recordings are not throttled;
// the camera produces at most one per motion episode.
func (m *Manager) Video(ctx context.Context, cameraID string, video []byte) VideoResult {
	result := VideoResult{
		Status:   StatusOK,
		Filename: fmt.Sprintf("recording_%s.mp4", m.now().Format(filenameTimeLayout)),
		Size:     len(video),
	}
	if m.uploader == nil {
		return result
	}
	result.Uploaded = m.doUpload(ctx, cameraID, m.config.VideoFolder, result.Filename, video)
	return result
}

// Alert sends a notification for a monitor alert, throttled under the
// notification interval keyed by the alert category.
func (m *Manager) Alert(alert models.Alert) bool {
	return m.notify("monitor:"+alert.Category,
		"Security Alert",
		fmt.Sprintf("%s (%s -> %s)", alert.Signature, alert.SrcIP, alert.DestIP))
}

func (m *Manager) doUpload(ctx context.Context, cameraID, dir, filename string, data []byte) bool {
	start := m.now()
	err := m.uploader.Upload(ctx, dir, filename, data)
	metrics.IntegrationDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IntegrationActions.WithLabelValues("upload", "error").Inc()
		log.Printf("integrations: upload %s/%s for %s failed: %v", dir, filename, cameraID, err)
		return false
	}
	metrics.IntegrationActions.WithLabelValues("upload", "ok").Inc()
	log.Printf("integrations: uploaded %s/%s for %s (%d bytes)", dir, filename, cameraID, len(data))
	return true
}

// notify dispatches a notification on a detached goroutine. Returns whether
// one was dispatched; delivery outcome only surfaces in logs and metrics.
func (m *Manager) notify(key, title, message string) bool {
	if m.notifier == nil {
		return false
	}
	if !m.notifyThrottle.Allow(key) {
		metrics.IntegrationActions.WithLabelValues("notify", "skipped").Inc()
		return false
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		start := time.Now()
		err := m.notifier.Notify(ctx, title, message)
		metrics.IntegrationDuration.WithLabelValues("notify").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.IntegrationActions.WithLabelValues("notify", "error").Inc()
			log.Printf("integrations: notification %q failed: %v", title, err)
			return
		}
		metrics.IntegrationActions.WithLabelValues("notify", "ok").Inc()
	}()
	return true
}
