package models

import (
	"fmt"
	"strings"
)

// Level is the severity of a report message.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// levelRank orders levels for threshold comparisons.
var levelRank = map[Level]int{
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// AtLeast reports whether l is as severe as min or more.
func (l Level) AtLeast(min Level) bool {
	return levelRank[l] >= levelRank[min]
}

// ParseLevel converts a case-insensitive level name into a Level.
// "WARN" is accepted as an alias for WARNING.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown level %q, must be one of: INFO, WARNING, ERROR", s)
	}
}

// MessageKind identifies which correlator rule produced a message.
type MessageKind string

const (
	KindSlowJob          MessageKind = "job.slow"
	KindUnmatchedEnd     MessageKind = "job.unmatched_end"
	KindUnknownStatus    MessageKind = "row.unknown_status"
	KindInvalidTimestamp MessageKind = "row.invalid_timestamp"
)

// Message is a leveled report entry. Level and Text are what ends up in the
// report file; the remaining fields describe the job the message is about.
type Message struct {
	Level           Level       `json:"level"`
	Text            string      `json:"text"`
	Kind            MessageKind `json:"kind"`
	PID             string      `json:"pid,omitempty"`
	Description     string      `json:"description,omitempty"`
	DurationMinutes float64     `json:"duration_minutes,omitempty"`
}

// ReportLine formats the message the way it appears in a report file.
func (m Message) ReportLine() string {
	return fmt.Sprintf("[%s] %s", m.Level, m.Text)
}
