package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// reportFormatter renders entries as "[LEVEL] message" lines.
type reportFormatter struct{}

func (reportFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(fmt.Sprintf("[%s] %s\n", strings.ToUpper(e.Level.String()), e.Message)), nil
}

var reportLevels = map[models.Level]logrus.Level{
	models.LevelInfo:    logrus.InfoLevel,
	models.LevelWarning: logrus.WarnLevel,
	models.LevelError:   logrus.ErrorLevel,
}

// ReportWriter records correlator messages as report lines.
type ReportWriter struct {
	logger *logrus.Logger
}

// NewReportWriter creates a ReportWriter writing to w.
func NewReportWriter(w io.Writer) *ReportWriter {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(reportFormatter{})
	return &ReportWriter{logger: l}
}

// Record writes msg as one report line. Messages with an unknown level are
// written at INFO.
func (r *ReportWriter) Record(msg models.Message) {
	level, ok := reportLevels[msg.Level]
	if !ok {
		level = logrus.InfoLevel
	}
	r.logger.Log(level, msg.Text)
}

// ReportFile is a ReportWriter backed by a file. The caller must Close it.
type ReportFile struct {
	*ReportWriter
	file *os.File
}

// OpenReport opens the report file at path. Existing content is kept and
// new lines appended unless truncate is set.
func OpenReport(path string, truncate bool) (*ReportFile, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	return &ReportFile{
		ReportWriter: NewReportWriter(f),
		file:         f,
	}, nil
}

// Close flushes and closes the report file.
func (r *ReportFile) Close() error {
	if err := r.file.Sync(); err != nil {
		_ = r.file.Close()
		return fmt.Errorf("syncing report: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	return nil
}
