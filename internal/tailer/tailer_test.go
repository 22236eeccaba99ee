package tailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLines(t *testing.T, path string, n int) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer f.Close()
	for i := 0; i < n; i++ {
		fmt.Fprintf(f, "line %d\n", i)
	}
}

func collect(t *testing.T, tl *Tailer, want int, timeout time.Duration) []Line {
	t.Helper()
	var lines []Line
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-tl.Lines():
			if !ok {
				return lines
			}
			if line.Err != nil {
				t.Errorf("unexpected error: %v", line.Err)
				continue
			}
			lines = append(lines, line)
			if len(lines) >= want {
				return lines
			}
		case <-deadline:
			return lines
		}
	}
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.log"), nil)
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestBacklogReplay(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "eve.json")
	writeLines(t, tmpFile, 10)

	opts := DefaultOptions()
	opts.Backlog = 3
	opts.Follow = false

	tl, err := New(tmpFile, opts)
	if err != nil {
		t.Fatalf("create tailer: %v", err)
	}
	defer tl.Stop()

	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("start tailer: %v", err)
	}

	lines := collect(t, tl, 10, 2*time.Second)
	if len(lines) != 3 {
		t.Fatalf("expected 3 backlog lines, got %d", len(lines))
	}
	want := []string{"line 7", "line 8", "line 9"}
	for i, line := range lines {
		if line.Text != want[i] {
			t.Errorf("line %d: got %q, want %q", i, line.Text, want[i])
		}
	}
}

func TestBacklogLargerThanFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "eve.json")
	writeLines(t, tmpFile, 5)

	opts := DefaultOptions()
	opts.Backlog = 100
	opts.Follow = false

	tl, err := New(tmpFile, opts)
	if err != nil {
		t.Fatalf("create tailer: %v", err)
	}
	defer tl.Stop()

	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("start tailer: %v", err)
	}

	lines := collect(t, tl, 10, 2*time.Second)
	if len(lines) != 5 {
		t.Fatalf("expected all 5 lines, got %d", len(lines))
	}
}

func TestFollowNewContent(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "eve.json")
	writeLines(t, tmpFile, 2)

	opts := DefaultOptions()
	opts.Backlog = 0
	opts.PollInterval = 50 * time.Millisecond

	tl, err := New(tmpFile, opts)
	if err != nil {
		t.Fatalf("create tailer: %v", err)
	}
	defer tl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tl.Start(ctx); err != nil {
		t.Fatalf("start tailer: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		f, err := os.OpenFile(tmpFile, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		defer f.Close()
		f.WriteString("appended 1\nappended 2\n")
	}()

	lines := collect(t, tl, 2, 3*time.Second)
	if len(lines) != 2 {
		t.Fatalf("expected 2 appended lines, got %d", len(lines))
	}
	if lines[0].Text != "appended 1" || lines[1].Text != "appended 2" {
		t.Errorf("unexpected lines: %q, %q", lines[0].Text, lines[1].Text)
	}
}

func TestSourceRemovalClosesChannel(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "eve.json")
	writeLines(t, tmpFile, 1)

	opts := DefaultOptions()
	opts.Backlog = 0
	opts.PollInterval = 50 * time.Millisecond

	tl, err := New(tmpFile, opts)
	if err != nil {
		t.Fatalf("create tailer: %v", err)
	}
	defer tl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tl.Start(ctx); err != nil {
		t.Fatalf("start tailer: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(tmpFile); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	select {
	case _, ok := <-tl.Lines():
		if ok {
			// Drain until closed.
			for range tl.Lines() {
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("line channel not closed after source removal")
	}
}

func TestStopIdempotent(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "eve.json")
	writeLines(t, tmpFile, 1)

	tl, err := New(tmpFile, nil)
	if err != nil {
		t.Fatalf("create tailer: %v", err)
	}

	tl.Stop()
	tl.Stop() // must not panic
}
