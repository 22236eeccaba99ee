package registry

import "sync"

// Recording command tokens understood by the edge devices.
const (
	CommandStartRecording = "start_recording"
	CommandStopRecording  = "stop_recording"
)

// CommandQueue holds at most one pending command per camera. A new command
// overwrites an unconsumed prior one; a command is consumed exactly once
// when returned in a status-poll response (at-most-once delivery, no retry
// if the response is lost).
type CommandQueue struct {
	mu      sync.Mutex
	pending map[string]string
}

// NewCommandQueue creates an empty CommandQueue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{pending: make(map[string]string)}
}

// Queue sets the pending command for a camera, replacing any prior one.
func (q *CommandQueue) Queue(cameraID, command string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[cameraID] = command
}

// Take removes and returns the pending command for a camera, if any.
func (q *CommandQueue) Take(cameraID string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cmd, ok := q.pending[cameraID]
	if ok {
		delete(q.pending, cameraID)
	}
	return cmd, ok
}
