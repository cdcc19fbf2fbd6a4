// Package mcp provides an MCP (Model Context Protocol) server that exposes
// jobwatch's job log analysis as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/valter-silva-au/jobwatch/internal/core"
	"github.com/valter-silva-au/jobwatch/internal/observability"
	"github.com/valter-silva-au/jobwatch/internal/storage"
	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// Server wraps jobwatch services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	thresholds  core.Thresholds
	metricsCalc observability.MetricsCalculator
	log         logrus.FieldLogger
}

// NewServer creates a new MCP server. metricsCalc may be nil if the event
// log is disabled; log may be nil.
func NewServer(thresholds core.Thresholds, metricsCalc observability.MetricsCalculator, log logrus.FieldLogger, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	s := &Server{
		thresholds:  thresholds,
		metricsCalc: metricsCalc,
		log:         log,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "jobwatch", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type analyzeLogInput struct {
	Content        string   `json:"content,omitempty" jsonschema:"job log text, one 'timestamp, description, status, pid' row per line"`
	Path           string   `json:"path,omitempty" jsonschema:"path to a job log file; used when content is empty"`
	WarningMinutes *float64 `json:"warning_minutes,omitempty" jsonschema:"runtime in minutes above which a job is a warning (default 5)"`
	ErrorMinutes   *float64 `json:"error_minutes,omitempty" jsonschema:"runtime in minutes above which a job is an error (default 10)"`
}

type messageOutput struct {
	Level           string  `json:"level"`
	Kind            string  `json:"kind"`
	Text            string  `json:"text"`
	PID             string  `json:"pid,omitempty"`
	Description     string  `json:"description,omitempty"`
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
}

type analyzeLogOutput struct {
	Report      []string        `json:"report"`
	Messages    []messageOutput `json:"messages"`
	RowsRead    int             `json:"rows_read"`
	RowsSkipped int             `json:"rows_skipped"`
	Errors      int             `json:"errors"`
	Warnings    int             `json:"warnings"`
	Infos       int             `json:"infos"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type slowJobOutput struct {
	PID             string  `json:"pid"`
	Description     string  `json:"description"`
	DurationMinutes float64 `json:"duration_minutes"`
	RunID           string  `json:"run_id"`
}

type metricsOutput struct {
	Runs        int            `json:"runs"`
	RowsRead    int            `json:"rows_read"`
	Messages    int            `json:"messages"`
	ByLevel     map[string]int `json:"by_level"`
	ByKind      map[string]int `json:"by_kind"`
	SlowestJob  *slowJobOutput `json:"slowest_job,omitempty"`
	EventCount  int            `json:"event_count"`
	OldestEvent string         `json:"oldest_event,omitempty"`
	NewestEvent string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_log",
		Description: "Correlate START/END job events and report jobs that ran past the warning or error threshold, END events without a START, unknown statuses and invalid timestamps.",
	}, s.handleAnalyzeLog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the jobwatch event log: runs, findings by level and kind, and the slowest job seen.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeLog(_ context.Context, _ *gomcp.CallToolRequest, input analyzeLogInput) (*gomcp.CallToolResult, analyzeLogOutput, error) {
	thresholds := s.thresholds
	if input.WarningMinutes != nil {
		thresholds.WarningMinutes = *input.WarningMinutes
	}
	if input.ErrorMinutes != nil {
		thresholds.ErrorMinutes = *input.ErrorMinutes
	}
	if thresholds.WarningMinutes > thresholds.ErrorMinutes {
		return errorResult(fmt.Sprintf("warning_minutes (%g) must not exceed error_minutes (%g)", thresholds.WarningMinutes, thresholds.ErrorMinutes)), emptyAnalyzeOutput(), nil
	}

	var src *storage.CSVRowSource
	switch {
	case input.Content != "":
		src = storage.NewCSVRowSource(strings.NewReader(input.Content), s.log)
	case input.Path != "":
		f, err := storage.OpenJobLog(input.Path, s.log)
		if err != nil {
			return errorResult(fmt.Sprintf("opening %s: %s", input.Path, err)), emptyAnalyzeOutput(), nil
		}
		defer f.Close()
		src = f.CSVRowSource
	default:
		return errorResult("either content or path is required"), emptyAnalyzeOutput(), nil
	}

	collected := observability.NewCollector(models.LevelInfo)
	tally := observability.NewTally()
	core.NewCorrelator(thresholds).Process(src.Rows(), observability.NewMultiSink(collected, tally))
	if err := src.Err(); err != nil {
		return errorResult(fmt.Sprintf("reading job log: %s", err)), emptyAnalyzeOutput(), nil
	}

	out := analyzeLogOutput{
		Report:      make([]string, len(collected.Messages)),
		Messages:    make([]messageOutput, len(collected.Messages)),
		RowsRead:    src.RowsRead(),
		RowsSkipped: src.RowsSkipped(),
		Errors:      tally.Count(models.LevelError),
		Warnings:    tally.Count(models.LevelWarning),
		Infos:       tally.Count(models.LevelInfo),
	}
	for i, m := range collected.Messages {
		out.Report[i] = m.ReportLine()
		out.Messages[i] = messageOutput{
			Level:           string(m.Level),
			Kind:            string(m.Kind),
			Text:            m.Text,
			PID:             m.PID,
			Description:     m.Description,
			DurationMinutes: m.DurationMinutes,
		}
	}

	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		Runs:       metrics.Runs,
		RowsRead:   metrics.RowsRead,
		Messages:   metrics.Messages,
		ByLevel:    metrics.ByLevel,
		ByKind:     metrics.ByKind,
		EventCount: metrics.EventCount,
	}
	if metrics.SlowestJob != nil {
		out.SlowestJob = &slowJobOutput{
			PID:             metrics.SlowestJob.PID,
			Description:     metrics.SlowestJob.Description,
			DurationMinutes: metrics.SlowestJob.DurationMinutes,
			RunID:           metrics.SlowestJob.RunID,
		}
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func emptyAnalyzeOutput() analyzeLogOutput {
	return analyzeLogOutput{
		Report:   []string{},
		Messages: []messageOutput{},
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		ByLevel: make(map[string]int),
		ByKind:  make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
