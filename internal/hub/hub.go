// Package hub fans registry updates out to connected viewer sessions over
// WebSocket. Every session receives every camera's updates; delivery is
// best effort with no acknowledgement.
package hub

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/metrics"
	"github.com/good-yellow-bee/camsentry/internal/models"
)

// Event types carried on the real-time channel.
const (
	EventFrame  = "frame"
	EventStatus = "status"
	EventDoor   = "door-status"
	EventAlert  = "alert"
)

// Message is the envelope for every broadcast.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// FramePayload carries one camera frame, base64-encoded for the wire.
type FramePayload struct {
	CameraID  string    `json:"camera_id"`
	Frame     string    `json:"frame"` // base64 JPEG
	Timestamp time.Time `json:"timestamp"`
}

// StatusPayload carries one camera's status fields.
type StatusPayload struct {
	CameraID string              `json:"camera_id"`
	Status   models.CameraStatus `json:"status"`
}

// FrameSource supplies the latest frame per camera for the catch-up push
// to newly connected sessions.
type FrameSource interface {
	Frames() map[string][]byte
}

// Hub maintains the set of active sessions and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	frames     FrameSource
}

// New creates a Hub. frames may be nil, in which case new sessions get no
// catch-up push.
func New(frames FrameSource) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		frames:     frames,
	}
}

// Run processes registrations and broadcasts for the life of the process.
// Run owns the clients map; no other goroutine touches it.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.WSClients.Set(float64(len(h.clients)))
			log.Printf("hub: session connected (%d active)", len(h.clients))
			h.sendCatchUp(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WSClients.Set(float64(len(h.clients)))
				log.Printf("hub: session disconnected (%d active)", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full: the session is stalled, drop it.
					delete(h.clients, client)
					close(client.send)
					metrics.WSClients.Set(float64(len(h.clients)))
				}
			}
		}
	}
}

// sendCatchUp pushes the latest known frame for every camera to a newly
// connected session. Latest frames only, never history.
func (h *Hub) sendCatchUp(client *Client) {
	if h.frames == nil {
		return
	}
	for cameraID, frame := range h.frames.Frames() {
		msg, err := encode(EventFrame, FramePayload{
			CameraID:  cameraID,
			Frame:     base64.StdEncoding.EncodeToString(frame),
			Timestamp: time.Now(),
		})
		if err != nil {
			continue
		}
		select {
		case client.send <- msg:
		default:
			return
		}
	}
}

// BroadcastFrame publishes a new frame to all sessions.
func (h *Hub) BroadcastFrame(cameraID string, frame []byte, ts time.Time) {
	h.publish(EventFrame, FramePayload{
		CameraID:  cameraID,
		Frame:     base64.StdEncoding.EncodeToString(frame),
		Timestamp: ts,
	})
}

// BroadcastStatus publishes a camera status update to all sessions.
func (h *Hub) BroadcastStatus(cameraID string, status models.CameraStatus) {
	h.publish(EventStatus, StatusPayload{CameraID: cameraID, Status: status})
}

// BroadcastDoor publishes the full door sensor state to all sessions.
func (h *Hub) BroadcastDoor(state models.DoorState) {
	h.publish(EventDoor, state)
}

// BroadcastAlert publishes a monitor alert to all sessions.
func (h *Hub) BroadcastAlert(alert models.Alert) {
	h.publish(EventAlert, alert)
}

func (h *Hub) publish(event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		log.Printf("hub: marshal %s broadcast: %v", event, err)
		return
	}
	metrics.BroadcastsTotal.WithLabelValues(event).Inc()
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast queue full; best effort means we drop rather than
		// block the ingestion path.
	}
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: event, Payload: payload})
}
