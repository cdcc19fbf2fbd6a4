package cli

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/valter-silva-au/jobwatch/internal/core"
	"github.com/valter-silva-au/jobwatch/internal/observability"
	"github.com/valter-silva-au/jobwatch/pkg/models"
)

// BasePath is the directory holding .jobwatch.yaml. Set in main before
// Execute and replaced by --config-dir.
var BasePath string

// Configuration and diagnostics, set during app initialization in app.go.
var (
	ConfigMgr core.ConfigurationManager
	Config    *models.Config
	Logger    *logrus.Logger
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)

// diagnostics returns Logger, or a logger that discards everything when the
// app has not been wired.
func diagnostics() logrus.FieldLogger {
	if Logger != nil {
		return Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
