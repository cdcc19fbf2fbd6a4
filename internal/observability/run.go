package observability

import (
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// RunRecorder writes the messages of one correlator run to an EventLog,
// tagging each with the run's ID. The first write error is kept and every
// later write is skipped.
type RunRecorder struct {
	log   EventLog
	runID string
	now   func() time.Time
	err   error
}

// NewRunRecorder creates a RunRecorder with a fresh run ID.
func NewRunRecorder(log EventLog) *RunRecorder {
	return &RunRecorder{
		log:   log,
		runID: uuid.NewString(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RunID returns the ID attached to every event of this run.
func (r *RunRecorder) RunID() string { return r.runID }

// Err returns the first event log write error, if any.
func (r *RunRecorder) Err() error { return r.err }

// Start records a run.started event for the given input.
func (r *RunRecorder) Start(input string, thresholds models.ThresholdConfig) {
	r.write(Event{
		Level:   string(models.LevelInfo),
		Type:    EventRunStarted,
		Message: "run started",
		Data: map[string]any{
			"input":           input,
			"warning_minutes": thresholds.WarningMinutes,
			"error_minutes":   thresholds.ErrorMinutes,
		},
	})
}

// Record writes msg as an event whose type is the message kind.
func (r *RunRecorder) Record(msg models.Message) {
	data := map[string]any{}
	if msg.PID != "" {
		data["pid"] = msg.PID
	}
	if msg.Description != "" {
		data["description"] = msg.Description
	}
	if msg.Kind == models.KindSlowJob {
		data["duration_minutes"] = msg.DurationMinutes
	}

	r.write(Event{
		Level:   string(msg.Level),
		Type:    string(msg.Kind),
		Message: msg.Text,
		Data:    data,
	})
}

// Complete records a run.completed event carrying the run's counts.
func (r *RunRecorder) Complete(rowsRead, rowsSkipped int, tally *Tally) {
	data := map[string]any{
		"rows_read":    rowsRead,
		"rows_skipped": rowsSkipped,
	}
	if tally != nil {
		data["messages"] = tally.Total
		data["errors"] = tally.Count(models.LevelError)
		data["warnings"] = tally.Count(models.LevelWarning)
		data["infos"] = tally.Count(models.LevelInfo)
	}
	r.write(Event{
		Level:   string(models.LevelInfo),
		Type:    EventRunCompleted,
		Message: "run completed",
		Data:    data,
	})
}

func (r *RunRecorder) write(e Event) {
	if r.err != nil || r.log == nil {
		return
	}
	e.Time = r.now()
	e.RunID = r.runID
	r.err = r.log.Write(e)
}
