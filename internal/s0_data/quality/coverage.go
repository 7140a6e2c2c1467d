// Package quality builds the per-run DataCoverage report.
package quality

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/yieldmap/internal/contracts"
)

// CoverageBuilder counts geographies per bedroom class as stages observe them
type CoverageBuilder struct {
	byBedroom map[contracts.BedroomClass]*contracts.DataCoverage
}

// NewCoverageBuilder creates a builder for the run's bedroom classes
func NewCoverageBuilder(bedrooms []contracts.BedroomClass) *CoverageBuilder {
	b := &CoverageBuilder{byBedroom: make(map[contracts.BedroomClass]*contracts.DataCoverage)}
	for _, bc := range bedrooms {
		b.entry(bc)
	}
	return b
}

func (b *CoverageBuilder) entry(bedroom contracts.BedroomClass) *contracts.DataCoverage {
	c, ok := b.byBedroom[bedroom]
	if !ok {
		c = &contracts.DataCoverage{BedroomClass: bedroom}
		b.byBedroom[bedroom] = c
	}
	return c
}

// AddGeo records one ZIP and which inputs it had
func (b *CoverageBuilder) AddGeo(bedroom contracts.BedroomClass, hasRent, hasHomeValueBothPeriods bool) {
	c := b.entry(bedroom)
	c.TotalGeos++
	if hasRent {
		c.GeosWithRent++
	}
	if hasHomeValueBothPeriods {
		c.GeosWithHomeValueBothPeriods++
	}
}

// AddScored records sufficient ScoreRecords
func (b *CoverageBuilder) AddScored(bedroom contracts.BedroomClass, n int) {
	b.entry(bedroom).GeosScored += n
}

// AddUsed records ZIPs that produced a yield mover
func (b *CoverageBuilder) AddUsed(bedroom contracts.BedroomClass, n int) {
	b.entry(bedroom).GeosUsed += n
}

// Results returns the coverage ordered by bedroom class
func (b *CoverageBuilder) Results() []contracts.DataCoverage {
	out := make([]contracts.DataCoverage, 0, len(b.byBedroom))
	for _, c := range b.byBedroom {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BedroomClass < out[j].BedroomClass })
	return out
}

// Thresholds are the coverage ratios below which a run logs a warning
type Thresholds struct {
	MinRentCoverage      float64
	MinHomeValueCoverage float64
	MinScoredCoverage    float64
}

// DefaultThresholds returns the warning thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinRentCoverage:      0.80,
		MinHomeValueCoverage: 0.50,
		MinScoredCoverage:    0.40,
	}
}

// Warning 권장 위반 (경고만)
type Warning struct {
	BedroomClass contracts.BedroomClass
	Code         string
	Ratio        float64
}

// Evaluate returns the coverage warnings. Partial coverage never fails a run.
func Evaluate(coverage []contracts.DataCoverage, th Thresholds) []Warning {
	var warnings []Warning
	for _, c := range coverage {
		if c.TotalGeos == 0 {
			warnings = append(warnings, Warning{BedroomClass: c.BedroomClass, Code: "no_geos"})
			continue
		}

		checks := []struct {
			code  string
			ratio float64
			min   float64
		}{
			{"low_rent_coverage", c.Ratio(c.GeosWithRent), th.MinRentCoverage},
			{"low_home_value_coverage", c.Ratio(c.GeosWithHomeValueBothPeriods), th.MinHomeValueCoverage},
			{"low_scored_coverage", c.Ratio(c.GeosScored), th.MinScoredCoverage},
		}
		for _, chk := range checks {
			if chk.ratio < chk.min {
				warnings = append(warnings, Warning{BedroomClass: c.BedroomClass, Code: chk.code, Ratio: chk.ratio})
			}
		}
	}
	return warnings
}

// Report emits one structured line per bedroom class plus one per warning
func Report(logger zerolog.Logger, coverage []contracts.DataCoverage, warnings []Warning) {
	for _, c := range coverage {
		logger.Info().
			Int("bedroom_class", int(c.BedroomClass)).
			Int("total_geos", c.TotalGeos).
			Int("geos_with_rent", c.GeosWithRent).
			Int("geos_with_home_value_both_periods", c.GeosWithHomeValueBothPeriods).
			Int("geos_used", c.GeosUsed).
			Int("geos_scored", c.GeosScored).
			Msg("data coverage")
	}

	for _, w := range warnings {
		logger.Warn().
			Int("bedroom_class", int(w.BedroomClass)).
			Str("code", w.Code).
			Float64("ratio", w.Ratio).
			Msg("coverage warning")
	}
}
