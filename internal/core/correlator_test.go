package core

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// recordingSink keeps every message it receives.
type recordingSink struct {
	messages []models.Message
}

func (s *recordingSink) Record(msg models.Message) {
	s.messages = append(s.messages, msg)
}

// parseRows splits "timestamp,description,status,pid" lines the way the
// CSV row source does.
func parseRows(t *testing.T, lines ...string) []models.Row {
	t.Helper()
	rows := make([]models.Row, 0, len(lines))
	for _, line := range lines {
		f := strings.Split(line, ",")
		if len(f) != 4 {
			t.Fatalf("test row %q must have 4 fields", line)
		}
		rows = append(rows, models.Row{
			Timestamp:   strings.TrimSpace(f[0]),
			Description: strings.TrimSpace(f[1]),
			Status:      models.JobStatus(strings.TrimSpace(f[2])),
			PID:         strings.TrimSpace(f[3]),
		})
	}
	return rows
}

func run(t *testing.T, th Thresholds, lines ...string) []models.Message {
	t.Helper()
	sink := &recordingSink{}
	NewCorrelator(th).Process(slices.Values(parseRows(t, lines...)), sink)
	return sink.messages
}

func TestCorrelator_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []models.Message
	}{
		{
			name:  "warning above threshold",
			lines: []string{"00:00:00,JobA,START,42", "00:06:00,JobA,END,42"},
			want: []models.Message{{
				Level: models.LevelWarning, Text: "Job 'JobA' (PID 42) took 6.00 minutes",
				Kind: models.KindSlowJob, PID: "42", Description: "JobA", DurationMinutes: 6,
			}},
		},
		{
			name:  "error above error threshold",
			lines: []string{"00:00:00,JobB,START,100", "00:11:00,JobB,END,100"},
			want: []models.Message{{
				Level: models.LevelError, Text: "Job 'JobB' (PID 100) took 11.00 minutes",
				Kind: models.KindSlowJob, PID: "100", Description: "JobB", DurationMinutes: 11,
			}},
		},
		{
			name:  "end without start",
			lines: []string{"00:10:00,OrphanTask,END,999"},
			want: []models.Message{{
				Level: models.LevelInfo, Text: "END event with no START for PID 999",
				Kind: models.KindUnmatchedEnd, PID: "999", Description: "OrphanTask",
			}},
		},
		{
			name:  "unknown status",
			lines: []string{"00:05:00,WeirdTask,UNKNOWN,555"},
			want: []models.Message{{
				Level: models.LevelInfo, Text: "Unknown status for job with PID 555",
				Kind: models.KindUnknownStatus, PID: "555", Description: "WeirdTask",
			}},
		},
		{
			name:  "invalid timestamp skips the start",
			lines: []string{"notatime,BadJob,START,123", "00:01:00,BadJob,END,123"},
			want: []models.Message{
				{
					Level: models.LevelWarning,
					Text:  `Invalid timestamp 'notatime' in row: ["notatime" "BadJob" "START" "123"]`,
					Kind:  models.KindInvalidTimestamp, PID: "123", Description: "BadJob",
				},
				{
					Level: models.LevelInfo, Text: "END event with no START for PID 123",
					Kind: models.KindUnmatchedEnd, PID: "123", Description: "BadJob",
				},
			},
		},
		{
			name:  "quick job is silent",
			lines: []string{"08:00:00,Backup,START,7", "08:04:59,Backup,END,7"},
			want:  nil,
		},
		{
			name:  "exactly five minutes is silent",
			lines: []string{"08:00:00,Backup,START,7", "08:05:00,Backup,END,7"},
			want:  nil,
		},
		{
			name:  "exactly ten minutes is a warning",
			lines: []string{"08:00:00,Backup,START,7", "08:10:00,Backup,END,7"},
			want: []models.Message{{
				Level: models.LevelWarning, Text: "Job 'Backup' (PID 7) took 10.00 minutes",
				Kind: models.KindSlowJob, PID: "7", Description: "Backup", DurationMinutes: 10,
			}},
		},
		{
			name:  "open job at end of input is dropped",
			lines: []string{"08:00:00,Forever,START,1"},
			want:  nil,
		},
		{
			name:  "empty status is unknown",
			lines: []string{"08:00:00,Blank,,3"},
			want: []models.Message{{
				Level: models.LevelInfo, Text: "Unknown status for job with PID 3",
				Kind: models.KindUnknownStatus, PID: "3", Description: "Blank",
			}},
		},
		{
			name:  "status match is case sensitive",
			lines: []string{"08:00:00,Lower,start,4", "08:30:00,Lower,END,4"},
			want: []models.Message{
				{
					Level: models.LevelInfo, Text: "Unknown status for job with PID 4",
					Kind: models.KindUnknownStatus, PID: "4", Description: "Lower",
				},
				{
					Level: models.LevelInfo, Text: "END event with no START for PID 4",
					Kind: models.KindUnmatchedEnd, PID: "4", Description: "Lower",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, DefaultThresholds(), tt.lines...)
			if !slices.Equal(got, tt.want) {
				t.Errorf("messages mismatch\n got: %+v\nwant: %+v", got, tt.want)
			}
		})
	}
}

func TestCorrelator_DuplicateStartUsesMostRecent(t *testing.T) {
	got := run(t, DefaultThresholds(),
		"00:00:00,First,START,8",
		"00:20:00,Second,START,8",
		"00:26:00,Done,END,8",
	)

	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d: %+v", len(got), got)
	}
	if got[0].Level != models.LevelWarning {
		t.Errorf("expected WARNING for 6 minutes after the second START, got %s", got[0].Level)
	}
	if got[0].Text != "Job 'Second' (PID 8) took 6.00 minutes" {
		t.Errorf("unexpected text %q", got[0].Text)
	}
}

func TestCorrelator_EndConsumesStart(t *testing.T) {
	got := run(t, DefaultThresholds(),
		"00:00:00,Job,START,5",
		"00:01:00,Job,END,5",
		"00:02:00,Job,END,5",
	)

	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d: %+v", len(got), got)
	}
	if got[0].Kind != models.KindUnmatchedEnd || got[0].PID != "5" {
		t.Errorf("expected unmatched END for PID 5, got %+v", got[0])
	}
}

func TestCorrelator_NegativeDurationIsNotCorrected(t *testing.T) {
	got := run(t, Thresholds{WarningMinutes: -2000, ErrorMinutes: 10},
		"23:59:00,Midnight,START,11",
		"00:01:00,Midnight,END,11",
	)

	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].DurationMinutes != -1438 {
		t.Errorf("expected -1438 minutes, got %v", got[0].DurationMinutes)
	}
	if got[0].Text != "Job 'Midnight' (PID 11) took -1438.00 minutes" {
		t.Errorf("unexpected text %q", got[0].Text)
	}
}

func TestCorrelator_NegativeDurationSilentWithDefaults(t *testing.T) {
	got := run(t, DefaultThresholds(),
		"23:59:00,Midnight,START,11",
		"00:01:00,Midnight,END,11",
	)
	if len(got) != 0 {
		t.Fatalf("expected no messages, got %+v", got)
	}
}

func TestCorrelator_FractionalMinutes(t *testing.T) {
	got := run(t, DefaultThresholds(),
		"10:00:00,Report,START,77",
		"10:07:20,Report,END,77",
	)
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Text != "Job 'Report' (PID 77) took 7.33 minutes" {
		t.Errorf("unexpected text %q", got[0].Text)
	}
}

func TestCorrelator_CustomThresholds(t *testing.T) {
	th := Thresholds{WarningMinutes: 1, ErrorMinutes: 2}
	got := run(t, th,
		"00:00:00,A,START,1",
		"00:01:30,A,END,1",
		"00:00:00,B,START,2",
		"00:03:00,B,END,2",
	)

	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Level != models.LevelWarning || got[1].Level != models.LevelError {
		t.Errorf("unexpected levels %s, %s", got[0].Level, got[1].Level)
	}
}

func TestCorrelator_InterleavedJobs(t *testing.T) {
	got := run(t, DefaultThresholds(),
		"01:00:00,Alpha,START,1",
		"01:01:00,Beta,START,2",
		"01:07:00,Beta,END,2",
		"01:12:00,Alpha,END,1",
	)

	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].PID != "2" || got[0].Level != models.LevelWarning {
		t.Errorf("expected Beta warning first, got %+v", got[0])
	}
	if got[1].PID != "1" || got[1].Level != models.LevelError {
		t.Errorf("expected Alpha error second, got %+v", got[1])
	}
}

func TestCorrelator_CallsAreIndependent(t *testing.T) {
	c := NewCorrelator(DefaultThresholds())

	first := &recordingSink{}
	c.Process(slices.Values(parseRows(t, "00:00:00,Job,START,1")), first)

	second := &recordingSink{}
	c.Process(slices.Values(parseRows(t, "00:30:00,Job,END,1")), second)

	if len(first.messages) != 0 {
		t.Errorf("expected no messages from first call, got %+v", first.messages)
	}
	if len(second.messages) != 1 || second.messages[0].Kind != models.KindUnmatchedEnd {
		t.Errorf("expected unmatched END in second call, got %+v", second.messages)
	}
}

func TestCorrelator_SinkFunc(t *testing.T) {
	var lines []string
	sink := SinkFunc(func(msg models.Message) { lines = append(lines, msg.ReportLine()) })

	NewCorrelator(DefaultThresholds()).Process(
		slices.Values(parseRows(t, "00:00:00,JobB,START,100", "00:11:00,JobB,END,100")),
		sink,
	)

	want := []string{"[ERROR] Job 'JobB' (PID 100) took 11.00 minutes"}
	if !slices.Equal(lines, want) {
		t.Errorf("got %v, want %v", lines, want)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"00:06:00", 6 * time.Minute, false},
		{"23:59:59", 23*time.Hour + 59*time.Minute + 59*time.Second, false},
		{"7:05:03", 7*time.Hour + 5*time.Minute + 3*time.Second, false},
		{"00:6:00", 6 * time.Minute, false},
		{"00:00:7", 7 * time.Second, false},
		{"0:6:0", 6 * time.Minute, false},
		{"00:006:00", 0, true},
		{"123:00:00", 0, true},
		{"24:00:00", 0, true},
		{"12:60:00", 0, true},
		{"12:00:60", 0, true},
		{"notatime", 0, true},
		{"", 0, true},
		{"12:00", 0, true},
		{"12:00:00 extra", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseClock(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				var tsErr *TimestampError
				if !errors.As(err, &tsErr) {
					t.Fatalf("expected *TimestampError, got %T", err)
				}
				if tsErr.Raw != tt.raw {
					t.Errorf("expected Raw %q, got %q", tt.raw, tsErr.Raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
