package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/yieldmap/internal/brain"
)

// errRunIncomplete makes the process exit non-zero when a stage produced no output
var errRunIncomplete = errors.New("pipeline run incomplete")

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scoring batch pass",
	Long: `Run resolves vintages, loads metrics, composes scores, rolls them up
and computes yield movers, then upserts the results in batches.

S0 → S1 → S3 → S4 → S5 → S6

Exit code is 0 on full or partial success (coverage warnings are logged)
and non-zero when any stage produced no output.

Flags:
  --year       FMR year (0 = latest available)
  --state      limit to one state (e.g. TX)
  --only       all | scores | yield
  --dry-run    compute and report without writing

Example:
  go run ./cmd/yieldmap run
  go run ./cmd/yieldmap run --year 2025 --state TX
  go run ./cmd/yieldmap run --only yield --dry-run`,
	RunE: runPipeline,
}

var (
	runYear   int
	runState  string
	runOnly   string
	runDryRun bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runYear, "year", 0, "FMR year (0 = latest)")
	runCmd.Flags().StringVar(&runState, "state", "", "two-letter state filter")
	runCmd.Flags().StringVar(&runOnly, "only", brain.OnlyAll, "all | scores | yield")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "compute without writing")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	runConfig := brain.RunConfig{
		RunID:  brain.GenerateRunID(),
		Year:   runYear,
		State:  strings.ToUpper(strings.TrimSpace(runState)),
		Only:   runOnly,
		DryRun: runDryRun,
	}
	if err := runConfig.Validate(); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	year := "latest"
	if runYear != 0 {
		year = strconv.Itoa(runYear)
	}
	state := runConfig.State
	if state == "" {
		state = "all"
	}
	PrintHeader("yieldmap scoring run", [][2]string{
		{"Run ID", runConfig.RunID},
		{"Year", year},
		{"State", state},
		{"Only", runConfig.Only},
		{"Dry run", strconv.FormatBool(runConfig.DryRun)},
		{"Config", a.scoring.Meta.ConfigID},
	})

	result, err := a.orchestrator().Run(cmd.Context(), runConfig)
	printRunResult(result)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}
	if !result.ExitOK() {
		return errRunIncomplete
	}
	return nil
}

func printRunResult(result *brain.RunResult) {
	if result == nil {
		return
	}
	fmt.Println()

	PrintKeyValue("FMR year", strconv.Itoa(result.FMRYear), 14)
	PrintKeyValue("Config hash", shortHash(result.ConfigHash), 14)
	PrintKeyValue("Duration", seconds(result.Duration), 14)
	if v := result.Vintages; v != nil {
		for _, hv := range v.HomeValueList() {
			PrintKeyValue(fmt.Sprintf("Home value/%d", hv.Bedroom), hv.Current.String(), 14)
		}
		if v.Tax != nil {
			PrintKeyValue("Tax", v.Tax.Current.String(), 14)
		}
		if v.Demand != nil {
			PrintKeyValue("Demand", v.Demand.Current.String(), 14)
		}
		for _, m := range v.Missing {
			PrintWarning("no vintage: " + m)
		}
	}
	fmt.Println()

	fmt.Println("Completed Stages:")
	for _, stage := range result.CompletedStages {
		fmt.Printf("  ✅ %s\n", stage)
	}
	for _, f := range result.Failures {
		fmt.Printf("  ❌ %s\n", f)
	}
	fmt.Println()

	fmt.Printf("Scores: %d  Rollups: %d  Yield movers: %d  Unresolved county: %d\n",
		len(result.Scores), len(result.Rollups), len(result.YieldMovers), result.UnresolvedCounty)
	fmt.Println()

	if len(result.Coverage) > 0 {
		widths := []int{7, 8, 18, 18, 18, 18}
		PrintTableHeader([]string{"Bedroom", "Geos", "With rent", "Home value (both)", "Scored", "Used (yield)"}, widths)
		for _, c := range result.Coverage {
			PrintTableRow([]string{
				strconv.Itoa(int(c.BedroomClass)),
				strconv.Itoa(c.TotalGeos),
				formatRatio(c.GeosWithRent, c.TotalGeos),
				formatRatio(c.GeosWithHomeValueBothPeriods, c.TotalGeos),
				formatRatio(c.GeosScored, c.TotalGeos),
				formatRatio(c.GeosUsed, c.TotalGeos),
			}, widths)
		}
		fmt.Println()
	}
	for _, w := range result.CoverageWarnings {
		PrintWarning(fmt.Sprintf("bedroom %d: %s (%.1f%%)", w.BedroomClass, w.Code, w.Ratio*100))
	}

	for _, w := range result.Writes {
		msg := fmt.Sprintf("%s: %d/%d rows in %d batches", w.Table, w.RowsWritten, w.Rows, w.Batches)
		switch {
		case w.Aborted:
			PrintWarning(msg + " (aborted)")
		case len(w.FailedBatches) > 0:
			PrintWarning(msg)
			for _, fb := range w.FailedBatches {
				fmt.Printf("     not updated: %s .. %s (%d rows)\n", fb.FirstKey, fb.LastKey, fb.Rows)
			}
		default:
			PrintSuccess(msg)
		}
	}

	fmt.Println()
	if result.ExitOK() {
		PrintSuccess("Pipeline run completed: " + result.RunID)
	} else {
		PrintError("Pipeline run incomplete: " + result.RunID)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
