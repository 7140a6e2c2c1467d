package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	scoringConfig string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "yieldmap",
	Short: "yieldmap - rental investment scores and yield movers",
	Long: `yieldmap Unified CLI

Batch engine that fuses rent standards, home values, tax rates and rental
demand into per-ZIP investment scores, city/county/state rollups and
year-over-year yield movers.

Usage:
  go run ./cmd/yieldmap [command]

Examples:
  go run ./cmd/yieldmap run --year 2025
  go run ./cmd/yieldmap run --state TX --dry-run
  go run ./cmd/yieldmap data-check
  go run ./cmd/yieldmap api
  go run ./cmd/yieldmap scheduler start
  go run ./cmd/yieldmap fmr convert FY25_FMRs.xlsx fmr-2025.csv
  go run ./cmd/yieldmap db migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Ctrl+C cancels the command context; a batch stops between write batches.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&scoringConfig, "scoring-config", "", "scoring parameters YAML (default: SCORING_CONFIG or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
