package observability

import (
	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// MessageRecorder is anything that accepts report messages. It matches
// core.MessageSink without importing core.
type MessageRecorder interface {
	Record(msg models.Message)
}

// MultiSink forwards every message to each recorder in order.
type MultiSink []MessageRecorder

// NewMultiSink builds a MultiSink, dropping nil recorders.
func NewMultiSink(recorders ...MessageRecorder) MultiSink {
	m := make(MultiSink, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

// Record forwards msg to every recorder.
func (m MultiSink) Record(msg models.Message) {
	for _, r := range m {
		r.Record(msg)
	}
}

// Tally counts the messages of one run.
type Tally struct {
	Total   int                        `json:"total"`
	ByLevel map[models.Level]int       `json:"by_level"`
	ByKind  map[models.MessageKind]int `json:"by_kind"`
	Slowest *models.Message            `json:"slowest,omitempty"`
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{
		ByLevel: make(map[models.Level]int),
		ByKind:  make(map[models.MessageKind]int),
	}
}

// Record counts msg and remembers the longest slow job seen.
func (t *Tally) Record(msg models.Message) {
	t.Total++
	t.ByLevel[msg.Level]++
	t.ByKind[msg.Kind]++

	if msg.Kind == models.KindSlowJob && (t.Slowest == nil || msg.DurationMinutes > t.Slowest.DurationMinutes) {
		m := msg
		t.Slowest = &m
	}
}

// Count returns the number of messages recorded at level.
func (t *Tally) Count(level models.Level) int {
	return t.ByLevel[level]
}

// Collector keeps the messages at or above MinLevel, in order.
type Collector struct {
	MinLevel models.Level
	Messages []models.Message
}

// NewCollector creates a Collector for messages at min or above.
func NewCollector(min models.Level) *Collector {
	return &Collector{MinLevel: min}
}

// Record keeps msg when its level is severe enough.
func (c *Collector) Record(msg models.Message) {
	if msg.Level.AtLeast(c.MinLevel) {
		c.Messages = append(c.Messages, msg)
	}
}
