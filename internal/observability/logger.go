package observability

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// NewLogger builds the diagnostics logger from cfg, writing to out.
// An empty level means info and an empty format means text.
func NewLogger(cfg models.LoggingConfig, out io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	return l, nil
}
