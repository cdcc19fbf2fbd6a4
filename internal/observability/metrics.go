package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// SlowJob describes one job.slow event.
type SlowJob struct {
	RunID           string    `json:"run_id"`
	PID             string    `json:"pid"`
	Description     string    `json:"description"`
	DurationMinutes float64   `json:"duration_minutes"`
	Time            time.Time `json:"time"`
}

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	Runs        int            `json:"runs"`
	RowsRead    int            `json:"rows_read"`
	Messages    int            `json:"messages"`
	ByLevel     map[string]int `json:"by_level"`
	ByKind      map[string]int `json:"by_kind"`
	SlowestJob  *SlowJob       `json:"slowest_job,omitempty"`
	EventCount  int            `json:"event_count"`
	OldestEvent *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		ByLevel: make(map[string]int),
		ByKind:  make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventRunStarted:
			m.Runs++
		case EventRunCompleted:
			if n, ok := event.Data["rows_read"].(float64); ok {
				m.RowsRead += int(n)
			}
		default:
			m.Messages++
			m.ByLevel[event.Level]++
			m.ByKind[event.Type]++

			if event.Type == string(models.KindSlowJob) {
				d, _ := event.Data["duration_minutes"].(float64)
				if m.SlowestJob == nil || d > m.SlowestJob.DurationMinutes {
					pid, _ := event.Data["pid"].(string)
					desc, _ := event.Data["description"].(string)
					m.SlowestJob = &SlowJob{
						RunID:           event.RunID,
						PID:             pid,
						Description:     desc,
						DurationMinutes: d,
						Time:            event.Time,
					}
				}
			}
		}
	}

	return m, nil
}
