package quality

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/yieldmap/internal/contracts"
)

func TestCoverageBuilder(t *testing.T) {
	b := NewCoverageBuilder([]contracts.BedroomClass{2, 1})

	b.AddGeo(1, true, true)
	b.AddGeo(1, true, false)
	b.AddGeo(1, false, false)
	b.AddScored(1, 1)
	b.AddUsed(1, 1)

	results := b.Results()
	require.Len(t, results, 2)

	assert.Equal(t, contracts.BedroomClass(1), results[0].BedroomClass)
	assert.Equal(t, contracts.DataCoverage{
		BedroomClass:                 1,
		TotalGeos:                    3,
		GeosWithRent:                 2,
		GeosWithHomeValueBothPeriods: 1,
		GeosUsed:                     1,
		GeosScored:                   1,
	}, results[0])

	// 빈 클래스도 보고됨
	assert.Equal(t, 0, results[1].TotalGeos)
}

func TestEvaluate(t *testing.T) {
	coverage := []contracts.DataCoverage{
		{BedroomClass: 0},
		{BedroomClass: 1, TotalGeos: 10, GeosWithRent: 10, GeosWithHomeValueBothPeriods: 9, GeosScored: 9},
		{BedroomClass: 2, TotalGeos: 10, GeosWithRent: 5, GeosWithHomeValueBothPeriods: 2, GeosScored: 1},
	}

	warnings := Evaluate(coverage, DefaultThresholds())

	var codes []string
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{
		"no_geos",
		"low_rent_coverage",
		"low_home_value_coverage",
		"low_scored_coverage",
	}, codes)
	assert.Equal(t, contracts.BedroomClass(2), warnings[1].BedroomClass)
	assert.InDelta(t, 0.5, warnings[1].Ratio, 1e-9)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	coverage := []contracts.DataCoverage{{BedroomClass: 1, TotalGeos: 4, GeosWithRent: 4}}
	Report(logger, coverage, []Warning{{BedroomClass: 1, Code: "low_scored_coverage"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"total_geos":4`)
	assert.Contains(t, lines[1], `"code":"low_scored_coverage"`)
}
