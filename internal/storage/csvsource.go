// Package storage reads job log files into rows for the correlator.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// rowFieldCount is the number of columns in a job log line:
// timestamp, description, status, identifier.
const rowFieldCount = 4

// RowSource yields parsed job log rows.
type RowSource interface {
	Rows() iter.Seq[models.Row]
	Err() error
}

// CSVRowSource reads comma-separated job log lines lazily. Lines with the
// wrong number of fields are logged and skipped.
type CSVRowSource struct {
	reader  *csv.Reader
	log     logrus.FieldLogger
	err     error
	read    int
	skipped int
	used    bool
}

// NewCSVRowSource creates a row source over r. log receives a warning for
// every discarded line; it may be nil.
func NewCSVRowSource(r io.Reader, log logrus.FieldLogger) *CSVRowSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	// Descriptions are free text: a quote inside an unquoted field is kept
	// as a literal character.
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &CSVRowSource{reader: cr, log: log}
}

// Rows returns the sequence of rows. The sequence can be ranged over once;
// later calls yield nothing.
func (s *CSVRowSource) Rows() iter.Seq[models.Row] {
	return func(yield func(models.Row) bool) {
		if s.used {
			return
		}
		s.used = true

		for {
			record, err := s.reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var perr *csv.ParseError
				if errors.As(err, &perr) {
					s.skipped++
					s.log.WithField("line", perr.Line).WithError(err).Warn("skipping malformed job log line")
					continue
				}
				s.err = fmt.Errorf("reading job log: %w", err)
				return
			}

			line, _ := s.reader.FieldPos(0)
			if len(record) != rowFieldCount {
				s.skipped++
				s.log.WithFields(logrus.Fields{
					"line":   line,
					"fields": len(record),
				}).Warn("skipping job log line with unexpected field count")
				continue
			}

			s.read++
			row := models.Row{
				Timestamp:   strings.TrimSpace(record[0]),
				Description: strings.TrimSpace(record[1]),
				Status:      models.JobStatus(strings.TrimSpace(record[2])),
				PID:         strings.TrimSpace(record[3]),
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Err returns the first read error that stopped iteration, if any.
func (s *CSVRowSource) Err() error { return s.err }

// RowsRead returns the number of rows yielded so far.
func (s *CSVRowSource) RowsRead() int { return s.read }

// RowsSkipped returns the number of lines discarded so far.
func (s *CSVRowSource) RowsSkipped() int { return s.skipped }

// JobLogFile is a CSVRowSource backed by an open file. The caller must
// Close it.
type JobLogFile struct {
	*CSVRowSource
	file *os.File
}

// OpenJobLog opens the job log at path for reading.
func OpenJobLog(path string, log logrus.FieldLogger) (*JobLogFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening job log: %w", err)
	}
	return &JobLogFile{
		CSVRowSource: NewCSVRowSource(f, log),
		file:         f,
	}, nil
}

// Close closes the underlying file.
func (j *JobLogFile) Close() error {
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("closing job log: %w", err)
	}
	return nil
}
