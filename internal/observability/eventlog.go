package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Run lifecycle event types. Every other event type is the MessageKind of
// a correlator finding, e.g. "job.slow".
const (
	EventRunStarted   = "run.started"
	EventRunCompleted = "run.completed"
)

// Event is one JSON line in the run history.
type Event struct {
	Time    time.Time      `json:"time"`
	RunID   string         `json:"run_id"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter selects events by time window, type, level and run. Zero
// fields match everything.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
	RunID string
}

// Match reports whether e passes every criterion set on f.
func (f EventFilter) Match(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.Level != "" && e.Level != f.Level:
		return false
	case f.RunID != "" && e.RunID != f.RunID:
		return false
	}
	return true
}

// EventLog is the run history shared by `process` (writer) and the metrics
// command and MCP tool (readers).
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// fileEventLog appends events to a JSON Lines file. Writes are serialized
// so concurrent runs sharing one handle never interleave lines.
type fileEventLog struct {
	mu   sync.Mutex
	path string
	w    *os.File
	enc  *json.Encoder
}

// NewJSONLEventLog opens (or creates) the JSON Lines history at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	w, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &fileEventLog{path: path, w: w, enc: json.NewEncoder(w)}, nil
}

// Write appends event as a single line. json.Encoder terminates each value
// with a newline.
func (l *fileEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("writing event %s: %w", event.Type, err)
	}
	return nil
}

// Read returns the events in file order that match filter. Blank lines and
// lines that are not valid JSON are skipped. A missing file reads as empty.
func (l *fileEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var e Event
			if json.Unmarshal(line, &e) == nil && filter.Match(e) {
				events = append(events, e)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return events, nil
		}
		if readErr != nil {
			return nil, fmt.Errorf("reading event log: %w", readErr)
		}
	}
}

// Close closes the history file.
func (l *fileEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.w.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
