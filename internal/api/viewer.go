package api

import (
	"net/http"

	"github.com/good-yellow-bee/camsentry/internal/models"
	"github.com/good-yellow-bee/camsentry/internal/registry"
	"github.com/good-yellow-bee/camsentry/pkg/config"
)

// handleCameraStatus reports one camera's status to the viewer page.
// Unknown cameras are reported offline with zero values rather than 404:
// the page polls before the camera's first frame arrives.
func (s *Server) handleCameraStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("camera_id")
	if id == "" {
		id = models.DefaultCameraID
	}

	status, _ := s.cameras.Status(id)

	resp := map[string]any{
		"camera_id":           id,
		"online":              s.cameras.IsAlive(id),
		"motion_detected":     status.MotionDetected,
		"last_motion_time":    status.LastMotionTime,
		"recording":           status.Recording,
		"cpu_temp":            status.CPUTemp,
		"uptime":              status.Uptime,
		"wifi_signal_quality": status.WiFiQuality,
		"nextcloud_enabled":   status.NextcloudEnabled,
		"pushover_enabled":    status.PushoverEnabled,
		"last_update":         status.LastUpdate,
	}
	if status.WiFiSignalDBm != nil {
		resp["wifi_signal_dbm"] = *status.WiFiSignalDBm
		resp["wifi_signal_percent"] = models.WiFiPercent(*status.WiFiSignalDBm)
	}
	OK(w, resp)
}

// handleStartRecording queues a start command for the camera. The command
// rides back on the camera's next status poll.
func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	s.queueCommand(w, r, registry.CommandStartRecording)
}

// handleStopRecording queues a stop command for the camera.
func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	s.queueCommand(w, r, registry.CommandStopRecording)
}

func (s *Server) queueCommand(w http.ResponseWriter, r *http.Request, command string) {
	id := r.URL.Query().Get("camera_id")
	if id == "" {
		id = models.DefaultCameraID
	}
	s.commands.Queue(id, command)
	OK(w, map[string]any{
		"status":    "ok",
		"camera_id": id,
		"command":   command,
	})
}

// handleDebugCameras exposes per-camera diagnostics.
func (s *Server) handleDebugCameras(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"cameras": s.cameras.Snapshots(),
		"door":    s.doorState(),
		"build":   config.GetBuildInfo(),
	}
	if s.monitor != nil {
		resp["monitoring_active"] = s.monitor.Active()
	}
	OK(w, resp)
}
