package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/jobwatch/internal/core"
	jwmcp "github.com/valter-silva-au/jobwatch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the jobwatch MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the jobwatch MCP server on stdio",
	Long: `Start the jobwatch MCP server on stdio transport.

The server exposes jobwatch functionality as MCP tools that AI coding
assistants can call: analyze_log, get_metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Config == nil {
			return fmt.Errorf("configuration not loaded")
		}

		thresholds := core.Thresholds{
			WarningMinutes: Config.Thresholds.WarningMinutes,
			ErrorMinutes:   Config.Thresholds.ErrorMinutes,
		}
		srv := jwmcp.NewServer(thresholds, MetricsCalc, diagnostics(), appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
