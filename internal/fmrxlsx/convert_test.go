package fmrxlsx

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := "FY25_FMRs"
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "fmr.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestConvertFile(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"fips", "countyname", "fmr_0", "fmr_1", "fmr_2"},
		{"4845399999", "Travis County", 1410, 1535, 1788},
		{"4811399999", "Dallas County, TX", 1250},
	})

	var out bytes.Buffer
	stats, err := ConvertFile(context.Background(), path, &out, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "FY25_FMRs", stats.Sheet)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 5, stats.Columns)

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"fips", "countyname", "fmr_0", "fmr_1", "fmr_2"},
		{"4845399999", "Travis County", "1410", "1535", "1788"},
		{"4811399999", "Dallas County, TX", "1250", "", ""},
	}, records)
}

func TestConvert_FromReader(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{{"a", "b"}, {"1", "2"}})

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	var wb bytes.Buffer
	require.NoError(t, f.Write(&wb))
	require.NoError(t, f.Close())

	var out bytes.Buffer
	stats, err := Convert(context.Background(), &wb, &out, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, "a,b\n1,2\n", out.String())
}

func TestConvert_Cancelled(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{{"a"}, {"b"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConvertFile(ctx, path, &bytes.Buffer{}, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertFile_Missing(t *testing.T) {
	_, err := ConvertFile(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), &bytes.Buffer{}, zerolog.Nop())
	assert.Error(t, err)
}
