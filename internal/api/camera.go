package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/metrics"
	"github.com/good-yellow-bee/camsentry/internal/models"
	"github.com/good-yellow-bee/camsentry/internal/registry"
)

// cameraIDHeader identifies the sending device on ingress requests.
const cameraIDHeader = "X-Camera-ID"

func cameraID(r *http.Request) string {
	if id := r.Header.Get(cameraIDHeader); id != "" {
		return id
	}
	if id := r.URL.Query().Get("camera_id"); id != "" {
		return id
	}
	return models.DefaultCameraID
}

// readBody reads the request body under the configured size cap.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes))
	if err != nil {
		JSONError(w, NewBadRequest("failed to read request body"))
		return nil, false
	}
	return body, true
}

// handleFrame ingests one JPEG frame from a camera.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	id := cameraID(r)

	frame, ok := s.readBody(w, r)
	if !ok {
		return
	}

	if err := s.cameras.UpdateFrame(id, frame); err != nil {
		JSONError(w, NewBadRequest("empty frame payload"))
		return
	}

	metrics.FramesReceived.WithLabelValues(id).Inc()
	metrics.FrameBytes.Observe(float64(len(frame)))

	s.hub.BroadcastFrame(id, frame, time.Now())

	OK(w, map[string]string{"status": "ok"})
}

// statusPush is the JSON body of a camera status update.
type statusPush struct {
	CameraID string `json:"camera_id"`
	registry.StatusUpdate
}

// handleStatus merges a camera status push and hands back any pending
// command. The command slot is consumed here and only here.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var push statusPush
	if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
		JSONError(w, NewBadRequest("invalid status payload"))
		return
	}

	id := push.CameraID
	if id == "" {
		id = cameraID(r)
	}

	status := s.cameras.UpdateStatus(id, push.StatusUpdate)
	metrics.StatusUpdates.WithLabelValues(id).Inc()

	s.hub.BroadcastStatus(id, status)

	resp := map[string]any{"status": "ok"}
	if cmd, ok := s.commands.Take(id); ok {
		resp["command"] = cmd
		log.Printf("api: delivered command %q to %s", cmd, id)
	}
	OK(w, resp)
}

// handleMotionImage ingests a motion snapshot and fans it out to the
// configured integrations. Integration failures never fail the request.
func (s *Server) handleMotionImage(w http.ResponseWriter, r *http.Request) {
	id := cameraID(r)

	image, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if len(image) == 0 {
		JSONError(w, NewBadRequest("empty image payload"))
		return
	}

	if s.manager == nil {
		OK(w, map[string]any{"status": "ok", "uploaded": false})
		return
	}

	result := s.manager.MotionImage(r.Context(), id, image)
	OK(w, map[string]any{
		"status":   result.Status,
		"uploaded": result.Uploaded,
		"notified": result.Notified,
		"filename": result.Filename,
	})
}

// handleVideo ingests a finished recording and uploads it.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	id := cameraID(r)

	video, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if len(video) == 0 {
		JSONError(w, NewBadRequest("empty video payload"))
		return
	}

	if s.manager == nil {
		OK(w, map[string]any{"status": "ok", "uploaded": false, "size": len(video)})
		return
	}

	result := s.manager.Video(r.Context(), id, video)
	OK(w, map[string]any{
		"status":   result.Status,
		"uploaded": result.Uploaded,
		"filename": result.Filename,
		"size":     result.Size,
	})
}
