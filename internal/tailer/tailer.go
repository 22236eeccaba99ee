// Package tailer follows a live-appended log file and emits lines as they
// are written. It replays a bounded backlog of recent lines on start and
// signals source disappearance by closing the line channel.
package tailer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Line is a single line read from the followed file.
type Line struct {
	Text string    // line content without trailing newline
	Time time.Time // when the line was read
	Err  error     // set for non-fatal read errors
}

// Options configures a Tailer.
type Options struct {
	// Backlog is the number of trailing lines to replay from existing
	// content before following new writes.
	Backlog int
	// PollInterval is the fallback polling interval for platforms where
	// fsnotify misses events.
	PollInterval time.Duration
	// Follow indicates whether to keep watching for new lines after the
	// backlog has been replayed.
	Follow bool
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Backlog:      100,
		PollInterval: 250 * time.Millisecond,
		Follow:       true,
	}
}

// Tailer watches a single file. The file must exist when the Tailer is
// created; if it disappears mid-tail the line channel is closed and the
// caller decides what to do (this package never reopens on its own).
type Tailer struct {
	filePath string
	opts     *Options
	watcher  *fsnotify.Watcher

	file   *os.File
	reader *bufio.Reader
	size   int64

	lines chan Line
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// New creates a Tailer for filePath. The file must exist.
func New(filePath string, opts *Options) (*Tailer, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", absPath, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	t := &Tailer{
		filePath: absPath,
		opts:     opts,
		watcher:  watcher,
		lines:    make(chan Line, 100),
		done:     make(chan struct{}),
	}

	if err := t.openFile(); err != nil {
		watcher.Close()
		return nil, err
	}
	t.size = info.Size()

	return t, nil
}

// Lines returns the channel of emitted lines. The channel is closed when
// the tailer stops, whether by Stop, context cancellation, or the source
// file disappearing.
func (t *Tailer) Lines() <-chan Line {
	return t.lines
}

// Start replays the configured backlog and then follows the file for new
// content until the context is canceled or the source disappears.
func (t *Tailer) Start(ctx context.Context) error {
	if err := t.seekToBacklog(); err != nil {
		return err
	}

	// Watch the directory so we see the file being removed or recreated.
	dir := filepath.Dir(t.filePath)
	if err := t.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	go t.run(ctx)
	return nil
}

// Stop stops the tailer. Safe to call multiple times.
func (t *Tailer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true

	close(t.done)
	t.watcher.Close()
	if t.file != nil {
		t.file.Close()
	}
}

func (t *Tailer) openFile() error {
	file, err := os.Open(t.filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	t.file = file
	t.reader = bufio.NewReader(file)
	return nil
}

// seekToBacklog positions the reader so that at most opts.Backlog complete
// lines of existing content remain ahead of it. It scans the file once,
// tracking the byte offsets of the most recent line starts in a ring.
func (t *Tailer) seekToBacklog() error {
	if t.opts.Backlog <= 0 {
		if _, err := t.file.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("seek to end: %w", err)
		}
		t.reader = bufio.NewReader(t.file)
		return nil
	}

	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}

	ring := make([]int64, t.opts.Backlog)
	count := 0
	var offset int64

	scanner := bufio.NewScanner(t.file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[count%len(ring)] = offset
		count++
		offset += int64(len(scanner.Bytes())) + 1
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan backlog: %w", err)
	}

	start := offset
	if count > 0 {
		if count < len(ring) {
			start = ring[0]
		} else {
			start = ring[count%len(ring)]
		}
	}

	if _, err := t.file.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("seek to backlog: %w", err)
	}
	t.reader = bufio.NewReader(t.file)
	return nil
}

func (t *Tailer) run(ctx context.Context) {
	defer close(t.lines)

	// Replay the backlog before following.
	t.readLines()

	if !t.opts.Follow {
		return
	}

	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if !t.handleEvent(event) {
				return
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.sendLine(Line{Err: fmt.Errorf("watcher error: %w", err)})
		case <-ticker.C:
			if !t.checkForChanges() {
				return
			}
		}
	}
}

// handleEvent processes one fsnotify event. Returns false when tailing
// must stop because the source is gone.
func (t *Tailer) handleEvent(event fsnotify.Event) bool {
	if event.Name != t.filePath {
		return true
	}

	switch {
	case event.Has(fsnotify.Write):
		t.readLines()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// Source disappeared. The monitor treats this as the tail
		// exiting; supervision outside this process restarts us.
		return false
	}
	return true
}

// checkForChanges is the polling fallback. Returns false when the source
// file no longer exists.
func (t *Tailer) checkForChanges() bool {
	info, err := os.Stat(t.filePath)
	if err != nil {
		return !os.IsNotExist(err)
	}

	newSize := info.Size()

	// Truncation (rotation with copytruncate): restart from the top.
	if newSize < t.size {
		t.handleTruncation()
		t.size = newSize
		return true
	}

	if newSize > t.size {
		t.size = newSize
		t.readLines()
	}
	return true
}

func (t *Tailer) handleTruncation() {
	if t.file != nil {
		t.file.Seek(0, io.SeekStart)
		t.reader = bufio.NewReader(t.file)
		t.readLines()
	}
}

func (t *Tailer) readLines() {
	if t.file == nil || t.reader == nil {
		return
	}

	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Partial line: seek back so the next read gets the
				// whole line once the writer finishes it.
				if len(line) > 0 {
					t.file.Seek(-int64(len(line)), io.SeekCurrent)
					t.reader = bufio.NewReader(t.file)
				}
				return
			}
			t.sendLine(Line{Err: fmt.Errorf("read error: %w", err)})
			return
		}

		line = line[:len(line)-1]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}

		t.sendLine(Line{Text: line, Time: time.Now()})
	}
}

func (t *Tailer) sendLine(line Line) {
	select {
	case t.lines <- line:
	case <-t.done:
	}
}
