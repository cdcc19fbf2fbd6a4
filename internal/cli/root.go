package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Setup wires the application for the given base path. It is set in main
// and called once before any command that needs configuration runs.
var Setup func(basePath string) error

// skipSetup marks commands that run without a loaded configuration.
const skipSetup = "jobwatch/skip-setup"

var (
	configDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "jobwatch",
	Short: "Flag long-running jobs in START/END job logs",
	Long: `jobwatch reads a log of job START and END events keyed by process ID,
pairs every END with the START before it and reports jobs whose runtime
went past the warning or error threshold.

Findings are written to a report file as "[LEVEL] message" lines, appended
to a JSONL event log for metrics, and optionally posted to Slack.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configDir != "" {
			BasePath = configDir
		}
		if cmd.Annotations[skipSetup] == "true" || Setup == nil {
			return nil
		}
		if err := Setup(BasePath); err != nil {
			return fmt.Errorf("initializing jobwatch: %w", err)
		}
		if logLevel != "" && Logger != nil {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("parsing --log-level: %w", err)
			}
			Logger.SetLevel(lvl)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipSetup: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jobwatch %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory containing .jobwatch.yaml (overrides JOBWATCH_HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostics log level (trace, debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
