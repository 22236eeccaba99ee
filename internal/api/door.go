package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/models"
)

// doorWebhook is the JSON body pushed by the door sensor bridge.
// The bridge sends "door_state"; "state" is accepted as an alias.
type doorWebhook struct {
	DoorState string `json:"door_state"`
	State     string `json:"state"`
	Device    string `json:"device"`
	Timestamp string `json:"timestamp"`
}

func (p doorWebhook) doorState() string {
	if p.DoorState != "" {
		return p.DoorState
	}
	return p.State
}

// handleWebhook ingests a door sensor push. State is overwritten
// wholesale; there is exactly one door.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var push doorWebhook
	if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
		JSONError(w, NewBadRequest("invalid webhook payload"))
		return
	}
	if push.doorState() == "" {
		JSONError(w, NewBadRequest("door_state is required"))
		return
	}

	state := models.DoorState{
		State:       push.doorState(),
		Device:      push.Device,
		Timestamp:   push.Timestamp,
		LastUpdated: time.Now(),
	}
	s.setDoorState(state)
	log.Printf("api: door %s (%s)", state.State, state.Device)

	s.hub.BroadcastDoor(state)

	OK(w, map[string]string{"status": "ok"})
}

// handleDoorStatus reports the current door state. Before the first
// webhook the state is "unknown".
func (s *Server) handleDoorStatus(w http.ResponseWriter, r *http.Request) {
	state := s.doorState()
	if state == nil {
		OK(w, map[string]any{"door_state": "unknown"})
		return
	}
	OK(w, map[string]any{
		"door_state":   state.State,
		"device":       state.Device,
		"timestamp":    state.Timestamp,
		"last_updated": state.LastUpdated,
		"time_ago":     time.Since(state.LastUpdated).Seconds(),
	})
}
