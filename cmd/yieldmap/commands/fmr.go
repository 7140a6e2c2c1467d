package commands

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/yieldmap/internal/fmrxlsx"
	"github.com/wonny/yieldmap/pkg/config"
	"github.com/wonny/yieldmap/pkg/httputil"
	"github.com/wonny/yieldmap/pkg/logger"
)

// fmrCmd represents the fmr command
var fmrCmd = &cobra.Command{
	Use:   "fmr",
	Short: "HUD Fair Market Rent file tools",
}

var fmrConvertCmd = &cobra.Command{
	Use:   "convert <input.xlsx> <output.csv>",
	Short: "Convert an FMR workbook to CSV",
	Long: `Stream the active sheet of a HUD FMR workbook to CSV. Empty cells
become empty strings; progress is logged every 2000 rows.

Example:
  go run ./cmd/yieldmap fmr convert data/FY25_FMRs.xlsx data/fmr-2025.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runFMRConvert,
}

var fmrFetchCmd = &cobra.Command{
	Use:   "fetch <url> <output.xlsx>",
	Short: "Download an FMR workbook",
	Long: `Download a HUD FMR workbook. Server errors and 429 responses are
retried with exponential backoff.

Example:
  go run ./cmd/yieldmap fmr fetch https://www.huduser.gov/portal/datasets/fmr/fmr2025/FY25_FMRs.xlsx data/FY25_FMRs.xlsx --convert data/fmr-2025.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runFMRFetch,
}

var fmrFetchConvert string

func init() {
	rootCmd.AddCommand(fmrCmd)
	fmrCmd.AddCommand(fmrConvertCmd, fmrFetchCmd)
	fmrFetchCmd.Flags().StringVar(&fmrFetchConvert, "convert", "", "also convert the workbook to this CSV path")
}

// fileLogger builds a console logger; file tools need no database config
func fileLogger() *logger.Logger {
	logCfg := &config.Config{Env: "development", LogLevel: "info", LogFormat: "console"}
	if verbose {
		logCfg.LogLevel = "debug"
	}
	return logger.New(logCfg)
}

func runFMRConvert(cmd *cobra.Command, args []string) error {
	return convertWorkbook(cmd, fileLogger(), args[0], args[1])
}

func convertWorkbook(cmd *cobra.Command, log *logger.Logger, in, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	buf := bufio.NewWriter(out)
	stats, err := fmrxlsx.ConvertFile(cmd.Context(), in, buf, log.Component("fmr"))
	if err != nil {
		PrintError(err.Error())
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	PrintKeyValue("Sheet", stats.Sheet, 8)
	PrintKeyValue("Rows", strconv.Itoa(stats.Rows), 8)
	PrintKeyValue("Columns", strconv.Itoa(stats.Columns), 8)
	PrintSuccess("Converted to " + outPath)
	return out.Close()
}

func runFMRFetch(cmd *cobra.Command, args []string) error {
	log := fileLogger()
	url, path := args[0], args[1]

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	n, err := httputil.New(log).Download(cmd.Context(), url, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		PrintError(err.Error())
		return err
	}
	PrintSuccess(fmt.Sprintf("Downloaded %d bytes to %s", n, path))

	if fmrFetchConvert == "" {
		return nil
	}
	return convertWorkbook(cmd, log, path, fmrFetchConvert)
}
