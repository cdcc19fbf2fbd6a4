package core

import (
	"fmt"
	"iter"
	"time"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// clockLayout is the accepted timestamp shape, H:M:S on a single day. Each
// field is one or two digits, so "7:5:3" and "07:05:03" are the same time.
const clockLayout = "15:4:5"

const (
	DefaultWarningMinutes = 5.0
	DefaultErrorMinutes   = 10.0
)

// Thresholds are the runtime limits, in minutes, a finished job must exceed
// to be reported at WARNING or ERROR level.
type Thresholds struct {
	WarningMinutes float64
	ErrorMinutes   float64
}

// DefaultThresholds returns the 5 minute warning / 10 minute error limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarningMinutes: DefaultWarningMinutes,
		ErrorMinutes:   DefaultErrorMinutes,
	}
}

// MessageSink receives report messages in emission order.
type MessageSink interface {
	Record(msg models.Message)
}

// SinkFunc adapts a plain function to MessageSink.
type SinkFunc func(msg models.Message)

// Record calls f(msg).
func (f SinkFunc) Record(msg models.Message) { f(msg) }

// TimestampError is returned by ParseClock when a row's timestamp is not a
// valid HH:MM:SS time of day.
type TimestampError struct {
	Raw string
	Err error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %v", e.Raw, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }

// ParseClock parses an HH:MM:SS timestamp and returns the offset since
// midnight.
func ParseClock(raw string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, raw)
	if err != nil {
		return 0, &TimestampError{Raw: raw, Err: err}
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// activeJob is an open START waiting for its END.
type activeJob struct {
	start       time.Duration
	description string
}

// Correlator matches END rows to earlier START rows by PID and reports jobs
// that ran longer than its thresholds.
type Correlator struct {
	thresholds Thresholds
}

// NewCorrelator creates a Correlator using the given thresholds.
func NewCorrelator(thresholds Thresholds) *Correlator {
	return &Correlator{thresholds: thresholds}
}

// Thresholds returns the limits the correlator classifies against.
func (c *Correlator) Thresholds() Thresholds {
	return c.thresholds
}

// Process scans rows in order and records a message on sink for every slow
// job, unmatched END, unknown status and unparseable timestamp. Jobs still
// open when rows are exhausted are dropped without a message. Each call
// starts with no open jobs.
func (c *Correlator) Process(rows iter.Seq[models.Row], sink MessageSink) {
	active := make(map[string]activeJob)

	for row := range rows {
		at, err := ParseClock(row.Timestamp)
		if err != nil {
			sink.Record(models.Message{
				Level:       models.LevelWarning,
				Text:        fmt.Sprintf("Invalid timestamp '%s' in row: %s", row.Timestamp, row),
				Kind:        models.KindInvalidTimestamp,
				PID:         row.PID,
				Description: row.Description,
			})
			continue
		}

		switch row.Status {
		case models.StatusStart:
			active[row.PID] = activeJob{start: at, description: row.Description}

		case models.StatusEnd:
			job, ok := active[row.PID]
			if !ok {
				sink.Record(models.Message{
					Level:       models.LevelInfo,
					Text:        fmt.Sprintf("END event with no START for PID %s", row.PID),
					Kind:        models.KindUnmatchedEnd,
					PID:         row.PID,
					Description: row.Description,
				})
				continue
			}
			delete(active, row.PID)

			minutes := (at - job.start).Seconds() / 60
			if level, slow := c.classify(minutes); slow {
				sink.Record(models.Message{
					Level:           level,
					Text:            fmt.Sprintf("Job '%s' (PID %s) took %.2f minutes", job.description, row.PID, minutes),
					Kind:            models.KindSlowJob,
					PID:             row.PID,
					Description:     job.description,
					DurationMinutes: minutes,
				})
			}

		default:
			sink.Record(models.Message{
				Level:       models.LevelInfo,
				Text:        fmt.Sprintf("Unknown status for job with PID %s", row.PID),
				Kind:        models.KindUnknownStatus,
				PID:         row.PID,
				Description: row.Description,
			})
		}
	}
}

// classify maps a duration to a report level. The second result is false
// when the job finished within the warning limit.
func (c *Correlator) classify(minutes float64) (models.Level, bool) {
	switch {
	case minutes > c.thresholds.ErrorMinutes:
		return models.LevelError, true
	case minutes > c.thresholds.WarningMinutes:
		return models.LevelWarning, true
	default:
		return "", false
	}
}
