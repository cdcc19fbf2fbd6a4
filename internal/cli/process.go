package cli

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/jobwatch/internal/core"
	"github.com/valter-silva-au/jobwatch/internal/observability"
	"github.com/valter-silva-au/jobwatch/internal/storage"
	"github.com/valter-silva-au/jobwatch/pkg/models"
)

var (
	processReport       string
	processEvents       string
	processWarnMinutes  float64
	processErrorMinutes float64
	processTruncate     bool
	processNotify       bool
	processSummaryJSON  bool
)

var processCmd = &cobra.Command{
	Use:   "process [FILE]",
	Short: "Correlate a job log and write the report",
	Long: `Read a job log of "timestamp, description, status, pid" lines, pair each
END with the START for the same PID and write every finding to the report:

  ERROR    the job ran longer than the error threshold
  WARNING  the job ran longer than the warning threshold, or a row had an
           invalid timestamp
  INFO     an END had no START, or a row had an unknown status

FILE defaults to paths.input from .jobwatch.yaml. The report is appended to
unless --truncate is given or report.truncate is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Config == nil {
			return fmt.Errorf("configuration not loaded")
		}

		summary, err := runProcess(cmd, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if processSummaryJSON {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting summary as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		fmt.Fprintln(out, renderSummary(*summary))
		return nil
	},
}

// processThresholds returns the configured thresholds with any flag
// overrides applied.
func processThresholds(cmd *cobra.Command) (core.Thresholds, error) {
	th := core.Thresholds{
		WarningMinutes: Config.Thresholds.WarningMinutes,
		ErrorMinutes:   Config.Thresholds.ErrorMinutes,
	}
	if cmd.Flags().Changed("warn-minutes") {
		th.WarningMinutes = processWarnMinutes
	}
	if cmd.Flags().Changed("error-minutes") {
		th.ErrorMinutes = processErrorMinutes
	}
	if th.WarningMinutes > th.ErrorMinutes {
		return th, fmt.Errorf("warning threshold (%g) must not exceed error threshold (%g)", th.WarningMinutes, th.ErrorMinutes)
	}
	return th, nil
}

func runProcess(cmd *cobra.Command, args []string) (summary *processSummary, err error) {
	log := diagnostics()

	thresholds, err := processThresholds(cmd)
	if err != nil {
		return nil, err
	}

	input := Config.Paths.Input
	if len(args) == 1 {
		input = args[0]
	}
	reportPath := Config.Paths.Report
	if processReport != "" {
		reportPath = processReport
	}

	src, err := storage.OpenJobLog(input, log)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	report, err := observability.OpenReport(reportPath, Config.Report.Truncate || processTruncate)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := report.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	eventLog := EventLog
	if processEvents != "" {
		eventLog, err = observability.NewJSONLEventLog(processEvents)
		if err != nil {
			return nil, err
		}
		defer eventLog.Close()
	}

	tally := observability.NewTally()
	collected := observability.NewCollector(Config.Notifications.MinLevel)
	recorders := []observability.MessageRecorder{report, tally, collected}

	var run *observability.RunRecorder
	if eventLog != nil {
		run = observability.NewRunRecorder(eventLog)
		run.Start(input, models.ThresholdConfig{
			WarningMinutes: thresholds.WarningMinutes,
			ErrorMinutes:   thresholds.ErrorMinutes,
		})
		recorders = append(recorders, run)
	}

	core.NewCorrelator(thresholds).Process(src.Rows(), observability.NewMultiSink(recorders...))
	if err := src.Err(); err != nil {
		return nil, err
	}

	summary = &processSummary{
		Input:       input,
		Report:      reportPath,
		RowsRead:    src.RowsRead(),
		RowsSkipped: src.RowsSkipped(),
		Errors:      tally.Count(models.LevelError),
		Warnings:    tally.Count(models.LevelWarning),
		Infos:       tally.Count(models.LevelInfo),
		Slowest:     tally.Slowest,
	}

	if run != nil {
		run.Complete(summary.RowsRead, summary.RowsSkipped, tally)
		if err := run.Err(); err != nil {
			log.WithError(err).Warn("event log write failed; run not fully recorded")
		} else {
			summary.RunID = run.RunID()
		}
	}

	if processNotify || Config.Notifications.Enabled {
		switch {
		case Notifier == nil:
			log.Warn("notifications requested but notifications.slack.webhook_url is not set")
		case len(collected.Messages) == 0:
			log.Debug("nothing to notify")
		default:
			if err := Notifier.Notify(collected.Messages); err != nil {
				log.WithError(err).Warn("sending notification failed")
			} else {
				summary.Notified = len(collected.Messages)
			}
		}
	}

	log.WithFields(logrus.Fields{
		"input":    input,
		"rows":     summary.RowsRead,
		"errors":   summary.Errors,
		"warnings": summary.Warnings,
	}).Debug("run finished")

	return summary, nil
}

func init() {
	processCmd.Flags().StringVar(&processReport, "report", "", "Report file (defaults to paths.report)")
	processCmd.Flags().StringVar(&processEvents, "events", "", "Event log file (defaults to paths.events)")
	processCmd.Flags().Float64Var(&processWarnMinutes, "warn-minutes", core.DefaultWarningMinutes, "Runtime in minutes above which a job is a warning")
	processCmd.Flags().Float64Var(&processErrorMinutes, "error-minutes", core.DefaultErrorMinutes, "Runtime in minutes above which a job is an error")
	processCmd.Flags().BoolVar(&processTruncate, "truncate", false, "Overwrite the report instead of appending")
	processCmd.Flags().BoolVar(&processNotify, "notify", false, "Post findings to Slack even if notifications.enabled is false")
	processCmd.Flags().BoolVar(&processSummaryJSON, "summary-json", false, "Print the run summary as JSON")
	rootCmd.AddCommand(processCmd)
}
