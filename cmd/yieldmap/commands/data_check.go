package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/yieldmap/internal/s0_data"
)

// dataCheckCmd represents the data-check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "Show the vintages a run would use",
	Long: `data-check resolves the vintage of every source and bedroom class
without computing anything, and lists how many ZIPs each state has.

Example:
  go run ./cmd/yieldmap data-check
  go run ./cmd/yieldmap data-check --year 2024`,
	RunE: runDataCheck,
}

var dataCheckYear int

func init() {
	rootCmd.AddCommand(dataCheckCmd)
	dataCheckCmd.Flags().IntVar(&dataCheckYear, "year", 0, "FMR year (0 = latest)")
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	source := s0_data.NewRepository(a.db.Pool)
	set, err := a.resolver(source).ResolveRun(ctx, dataCheckYear, a.scoring.Geography.Bedrooms())
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintHeader("Data vintages", [][2]string{{"FMR year", strconv.Itoa(set.FMRYear)}})

	widths := []int{12, 8, 10, 10}
	PrintTableHeader([]string{"Source", "Bedroom", "Current", "Prior"}, widths)
	PrintTableRow([]string{"rent", "all", set.Rent.Current.String(), set.Rent.Prior.String()}, widths)
	for _, hv := range set.HomeValueList() {
		PrintTableRow([]string{"home_value", strconv.Itoa(int(hv.Bedroom)), hv.Current.String(), hv.Prior.String()}, widths)
	}
	if set.Tax != nil {
		PrintTableRow([]string{"tax_rate", "-", set.Tax.Current.String(), ""}, widths)
	}
	if set.Demand != nil {
		PrintTableRow([]string{"demand", "-", set.Demand.Current.String(), ""}, widths)
	}
	fmt.Println()
	for _, m := range set.Missing {
		PrintWarning("no vintage: " + m)
	}

	states, err := source.ListStates(ctx)
	if err != nil {
		return fmt.Errorf("list states: %w", err)
	}
	allow := a.scoring.Geography.AllowSet()
	for _, st := range states {
		zips, err := source.ListZipGeos(ctx, st)
		if err != nil {
			return fmt.Errorf("list zips %s: %w", st, err)
		}
		note := ""
		if !allow[st] {
			note = " (ZIP level only)"
		}
		PrintKeyValue(st, fmt.Sprintf("%d ZIPs%s", len(zips), note), 4)
	}

	return nil
}
