package registry

import (
	"testing"
	"time"

	"github.com/good-yellow-bee/camsentry/internal/models"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUpdateFrameEmptyPayload(t *testing.T) {
	r := New()

	if err := r.UpdateFrame("cam1", nil); err != ErrEmptyFrame {
		t.Fatalf("err = %v, want ErrEmptyFrame", err)
	}
	if count := r.FrameCount("cam1"); count != 0 {
		t.Errorf("frame counter = %d after rejected push, want 0", count)
	}

	if err := r.UpdateFrame("cam1", []byte{0xff, 0xd8}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := r.FrameCount("cam1"); count != 1 {
		t.Errorf("frame counter = %d, want 1", count)
	}
}

func TestFrameReplacedWholesale(t *testing.T) {
	r := New()
	r.UpdateFrame("cam1", []byte("first"))
	r.UpdateFrame("cam1", []byte("second"))

	if got := string(r.Frame("cam1")); got != "second" {
		t.Errorf("frame = %q, want second", got)
	}
	if count := r.FrameCount("cam1"); count != 2 {
		t.Errorf("frame counter = %d, want 2", count)
	}
}

func TestDefaultCameraID(t *testing.T) {
	r := New()
	r.UpdateFrame("", []byte("x"))

	if r.Frame(models.DefaultCameraID) == nil {
		t.Error("empty id should map to the default camera id")
	}
}

func TestUpdateStatusMerge(t *testing.T) {
	r := New()

	st := r.UpdateStatus("cam1", StatusUpdate{
		MotionDetected: boolPtr(true),
		CPUTemp:        strPtr("48.2°C"),
		WiFiSignalDBm:  intPtr(-65),
		WiFiQuality:    strPtr("Good"),
	})
	if !st.MotionDetected || st.CPUTemp != "48.2°C" {
		t.Errorf("first merge = %+v", st)
	}
	// Unsupplied fields keep type-appropriate defaults on first contact.
	if st.Uptime != "Unknown" {
		t.Errorf("uptime = %q, want Unknown default", st.Uptime)
	}

	// A partial update retains prior values for unsupplied fields.
	st = r.UpdateStatus("cam1", StatusUpdate{Recording: boolPtr(true)})
	if !st.MotionDetected {
		t.Error("motion flag lost by partial update")
	}
	if !st.Recording {
		t.Error("recording flag not applied")
	}
	if st.WiFiSignalDBm == nil || *st.WiFiSignalDBm != -65 {
		t.Errorf("wifi dbm lost: %v", st.WiFiSignalDBm)
	}
}

func TestIsAlive(t *testing.T) {
	r := New()
	now := time.Now()
	r.now = func() time.Time { return now }

	// No frames ever received: never alive.
	if r.IsAlive("cam1") {
		t.Error("camera with no frames should not be alive")
	}

	r.UpdateFrame("cam1", []byte("x"))
	if !r.IsAlive("cam1") {
		t.Error("camera should be alive right after a frame")
	}

	// Just under the threshold: still alive.
	r.now = func() time.Time { return now.Add(models.LivenessThreshold - time.Millisecond) }
	if !r.IsAlive("cam1") {
		t.Error("camera should be alive just under the threshold")
	}

	// Past the threshold with no further frames: dead.
	r.now = func() time.Time { return now.Add(models.LivenessThreshold + time.Second) }
	if r.IsAlive("cam1") {
		t.Error("camera should be dead past the threshold")
	}
}

func TestSnapshots(t *testing.T) {
	r := New()
	r.UpdateFrame("cam1", []byte("abcd"))
	r.UpdateStatus("cam2", StatusUpdate{Recording: boolPtr(true)})

	snaps := r.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}

	byID := make(map[string]Snapshot, len(snaps))
	for _, s := range snaps {
		byID[s.ID] = s
	}
	if s := byID["cam1"]; s.FrameCount != 1 || s.FrameBytes != 4 || !s.Alive {
		t.Errorf("cam1 snapshot = %+v", s)
	}
	if s := byID["cam2"]; s.Alive || s.FrameCount != 0 {
		t.Errorf("cam2 snapshot = %+v, want no frames and not alive", s)
	}
}

func TestFramesCatchUp(t *testing.T) {
	r := New()
	r.UpdateFrame("cam1", []byte("one"))
	r.UpdateStatus("cam2", StatusUpdate{}) // known but frameless

	frames := r.Frames()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if string(frames["cam1"]) != "one" {
		t.Errorf("frames[cam1] = %q", frames["cam1"])
	}
}

func TestCommandQueueOverwriteAndConsume(t *testing.T) {
	q := NewCommandQueue()

	q.Queue("cam1", CommandStartRecording)
	q.Queue("cam1", CommandStopRecording) // overwrites

	cmd, ok := q.Take("cam1")
	if !ok || cmd != CommandStopRecording {
		t.Fatalf("Take = %q, %v; want stop_recording, true", cmd, ok)
	}

	// Consumed exactly once.
	if _, ok := q.Take("cam1"); ok {
		t.Error("second Take should return nothing")
	}
}

func TestCommandQueuePerCamera(t *testing.T) {
	q := NewCommandQueue()
	q.Queue("cam1", CommandStartRecording)

	if _, ok := q.Take("cam2"); ok {
		t.Error("cam2 should have no pending command")
	}
	if cmd, ok := q.Take("cam1"); !ok || cmd != CommandStartRecording {
		t.Errorf("cam1 Take = %q, %v", cmd, ok)
	}
}
