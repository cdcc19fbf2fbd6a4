// Package internal provides the App struct that wires all components of
// jobwatch together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/valter-silva-au/jobwatch/internal/cli"
	"github.com/valter-silva-au/jobwatch/internal/core"
	"github.com/valter-silva-au/jobwatch/internal/observability"
	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// HomeEnv names the environment variable that overrides the base path.
const HomeEnv = "JOBWATCH_HOME"

// App holds all service dependencies for jobwatch.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Diagnostics
	Logger *logrus.Logger

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp loads the configuration found under basePath and wires every
// component from it. A missing config file means defaults; an invalid one
// is an error.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Diagnostics ---
	app.Logger, err = observability.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	// --- Observability ---
	if cfg.Paths.Events != "" {
		app.EventLog, err = observability.NewJSONLEventLog(cfg.Paths.Events)
		if err != nil {
			// Non-fatal: runs still produce a report without the event log.
			app.Logger.WithError(err).WithField("path", cfg.Paths.Events).Warn("event log disabled")
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.ConfigMgr = app.ConfigMgr
	cli.Config = app.Config
	cli.Logger = app.Logger
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory jobwatch reads its configuration
// from. It checks the JOBWATCH_HOME env var, then walks up from the current
// directory looking for .jobwatch.yaml, then falls back to the current
// directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}
