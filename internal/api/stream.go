package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/good-yellow-bee/camsentry/internal/hub"
	"github.com/good-yellow-bee/camsentry/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Viewer page and the server share an origin in deployment; the
	// relay sits behind the home router, not on the public internet.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and attaches it to the hub.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade failed: %v", err)
		return
	}
	hub.NewClient(s.hub, conn)
}

// handleVideoFeed streams the camera's latest frames as multipart MJPEG.
// The stream repeats the most recent frame at the configured interval, so
// a stalled camera shows its last picture rather than a broken stream.
func (s *Server) handleVideoFeed(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("camera_id")
	if id == "" {
		id = models.DefaultCameraID
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		JSONError(w, ErrInternalServer)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")

	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frame := s.cameras.Frame(id)
			if frame == nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
