package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

func TestReportWriter_FormatsLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	w := NewReportWriter(&buf)

	w.Record(models.Message{Level: models.LevelWarning, Text: "Job 'JobA' (PID 42) took 6.00 minutes"})
	w.Record(models.Message{Level: models.LevelError, Text: "Job 'JobB' (PID 100) took 11.00 minutes"})
	w.Record(models.Message{Level: models.LevelInfo, Text: "END event with no START for PID 999"})

	assert.Equal(t,
		"[WARNING] Job 'JobA' (PID 42) took 6.00 minutes\n"+
			"[ERROR] Job 'JobB' (PID 100) took 11.00 minutes\n"+
			"[INFO] END event with no START for PID 999\n",
		buf.String())
}

func TestReportWriter_MatchesMessageReportLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewReportWriter(&buf)

	msg := models.Message{Level: models.LevelInfo, Text: "Unknown status for job with PID 555"}
	w.Record(msg)

	assert.Equal(t, msg.ReportLine()+"\n", buf.String())
}

func TestReportWriter_UnknownLevelWritesInfo(t *testing.T) {
	var buf bytes.Buffer
	w := NewReportWriter(&buf)

	w.Record(models.Message{Level: "DEBUG", Text: "odd"})

	assert.Equal(t, "[INFO] odd\n", buf.String())
}

func TestOpenReport_AppendsByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.log")
	require.NoError(t, os.WriteFile(path, []byte("[INFO] earlier run\n"), 0o644))

	r, err := OpenReport(path, false)
	require.NoError(t, err)
	r.Record(models.Message{Level: models.LevelError, Text: "later run"})
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[INFO] earlier run\n[ERROR] later run\n", string(data))
}

func TestOpenReport_Truncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.log")
	require.NoError(t, os.WriteFile(path, []byte("[INFO] earlier run\n"), 0o644))

	r, err := OpenReport(path, true)
	require.NoError(t, err)
	r.Record(models.Message{Level: models.LevelWarning, Text: "fresh"})
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[WARNING] fresh\n", string(data))
}

func TestOpenReport_MissingDirectory(t *testing.T) {
	_, err := OpenReport(filepath.Join(t.TempDir(), "missing", "report.log"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening report")
}
