package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)

	levelError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	levelWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	levelInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// processSummary is what `jobwatch process` reports once a run finishes.
type processSummary struct {
	RunID       string          `json:"run_id,omitempty"`
	Input       string          `json:"input"`
	Report      string          `json:"report"`
	RowsRead    int             `json:"rows_read"`
	RowsSkipped int             `json:"rows_skipped"`
	Errors      int             `json:"errors"`
	Warnings    int             `json:"warnings"`
	Infos       int             `json:"infos"`
	Slowest     *models.Message `json:"slowest,omitempty"`
	Notified    int             `json:"notified"`
}

func styleForLevel(level models.Level) lipgloss.Style {
	switch level {
	case models.LevelError:
		return levelError
	case models.LevelWarning:
		return levelWarning
	case models.LevelInfo:
		return levelInfo
	default:
		return lipgloss.NewStyle()
	}
}

// renderSummary formats s as a bordered panel for the terminal.
func renderSummary(s processSummary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" jobwatch "))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%-14s %s\n", "Input:", s.Input)
	fmt.Fprintf(&b, "%-14s %s\n", "Report:", s.Report)
	fmt.Fprintf(&b, "%-14s %d read, %d skipped\n\n", "Rows:", s.RowsRead, s.RowsSkipped)

	counts := []struct {
		level models.Level
		n     int
	}{
		{models.LevelError, s.Errors},
		{models.LevelWarning, s.Warnings},
		{models.LevelInfo, s.Infos},
	}
	for _, c := range counts {
		label := fmt.Sprintf("%-14s %d", string(c.level), c.n)
		b.WriteString(styleForLevel(c.level).Render(label))
		b.WriteString("\n")
	}

	if s.Slowest != nil {
		fmt.Fprintf(&b, "\n%-14s %s (PID %s) %.2f min\n", "Slowest:", s.Slowest.Description, s.Slowest.PID, s.Slowest.DurationMinutes)
	}
	if s.Notified > 0 {
		fmt.Fprintf(&b, "%-14s %d finding(s) sent to Slack\n", "Notified:", s.Notified)
	}
	if s.RunID != "" {
		b.WriteString(dimStyle.Render("run " + s.RunID))
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}
