// Package fmrxlsx converts HUD Fair Market Rent workbooks to CSV for the
// rent table loaders.
package fmrxlsx

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ProgressEvery is how often (in rows) conversion progress is logged
const ProgressEvery = 2000

// Stats describes one conversion
type Stats struct {
	Sheet   string
	Rows    int
	Columns int // header width; shorter rows are padded to it
}

// ConvertFile streams the active sheet of the workbook at path into out
func ConvertFile(ctx context.Context, path string, out io.Writer, logger zerolog.Logger) (Stats, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return convert(ctx, f, out, logger)
}

// Convert streams the active sheet of the workbook read from r into out
func Convert(ctx context.Context, r io.Reader, out io.Writer, logger zerolog.Logger) (Stats, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Stats{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return convert(ctx, f, out, logger)
}

func convert(ctx context.Context, f *excelize.File, out io.Writer, logger zerolog.Logger) (Stats, error) {
	stats := Stats{Sheet: f.GetSheetName(f.GetActiveSheetIndex())}
	logger = logger.With().Str("component", "fmrxlsx").Str("sheet", stats.Sheet).Logger()

	rows, err := f.Rows(stats.Sheet)
	if err != nil {
		return stats, fmt.Errorf("read sheet %s: %w", stats.Sheet, err)
	}
	defer rows.Close()

	w := csv.NewWriter(out)
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		cols, err := rows.Columns()
		if err != nil {
			return stats, fmt.Errorf("row %d: %w", stats.Rows+1, err)
		}
		if stats.Rows == 0 {
			stats.Columns = len(cols)
		}
		// 빈 셀은 빈 문자열로 채움
		for len(cols) < stats.Columns {
			cols = append(cols, "")
		}

		if err := w.Write(cols); err != nil {
			return stats, fmt.Errorf("write row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		if stats.Rows%ProgressEvery == 0 {
			logger.Info().Int("rows", stats.Rows).Msg("conversion progress")
		}
	}
	if err := rows.Error(); err != nil {
		return stats, fmt.Errorf("iterate rows: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return stats, fmt.Errorf("flush csv: %w", err)
	}

	logger.Info().Int("rows", stats.Rows).Int("columns", stats.Columns).Msg("workbook converted")
	return stats, nil
}
