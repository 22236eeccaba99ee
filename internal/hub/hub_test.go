package hub

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/good-yellow-bee/camsentry/internal/models"
)

type staticFrames map[string][]byte

func (s staticFrames) Frames() map[string][]byte { return s }

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		NewClient(h, conn)
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

func TestCatchUpPushOnConnect(t *testing.T) {
	frames := staticFrames{"camera1": []byte("jpeg-bytes")}
	h := New(frames)
	go h.Run()

	conn, cleanup := dialHub(t, h)
	defer cleanup()

	msg := readMessage(t, conn)
	if msg.Type != EventFrame {
		t.Fatalf("expected %q message, got %q", EventFrame, msg.Type)
	}
	payload, _ := json.Marshal(msg.Payload)
	var frame FramePayload
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if frame.CameraID != "camera1" {
		t.Errorf("camera_id = %q, want camera1", frame.CameraID)
	}
	decoded, err := base64.StdEncoding.DecodeString(frame.Frame)
	if err != nil {
		t.Fatalf("frame not base64: %v", err)
	}
	if string(decoded) != "jpeg-bytes" {
		t.Errorf("frame = %q, want jpeg-bytes", decoded)
	}
}

func TestBroadcastReachesAllSessions(t *testing.T) {
	h := New(nil)
	go h.Run()

	first, cleanupFirst := dialHub(t, h)
	defer cleanupFirst()
	second, cleanupSecond := dialHub(t, h)
	defer cleanupSecond()

	// Give the register channel time to be serviced before broadcasting.
	time.Sleep(50 * time.Millisecond)

	h.BroadcastStatus("camera1", models.CameraStatus{Recording: true})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		if msg.Type != EventStatus {
			t.Fatalf("expected %q message, got %q", EventStatus, msg.Type)
		}
		payload, _ := json.Marshal(msg.Payload)
		var status StatusPayload
		if err := json.Unmarshal(payload, &status); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if !status.Status.Recording {
			t.Error("expected recording status to carry through")
		}
	}
}

func TestBroadcastDoorAndAlert(t *testing.T) {
	h := New(nil)
	go h.Run()

	conn, cleanup := dialHub(t, h)
	defer cleanup()
	time.Sleep(50 * time.Millisecond)

	h.BroadcastDoor(models.DoorState{State: "open", Device: "front"})
	if msg := readMessage(t, conn); msg.Type != EventDoor {
		t.Fatalf("expected %q message, got %q", EventDoor, msg.Type)
	}

	h.BroadcastAlert(models.Alert{Severity: models.SeverityHigh, Signature: "test"})
	if msg := readMessage(t, conn); msg.Type != EventAlert {
		t.Fatalf("expected %q message, got %q", EventAlert, msg.Type)
	}
}

func TestDisconnectRemovesSession(t *testing.T) {
	h := New(nil)
	go h.Run()

	conn, cleanup := dialHub(t, h)
	time.Sleep(50 * time.Millisecond)
	cleanup()

	// After the session drops, broadcasting must not block or panic.
	deadline := time.After(time.Second)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.BroadcastStatus("camera1", models.CameraStatus{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-deadline:
		t.Fatal("broadcast blocked after disconnect")
	}
	_ = conn
}
