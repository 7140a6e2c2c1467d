// Package s5_yield compares prior-year and current-year rent yield.
package s5_yield

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/s1_metrics"
	"github.com/wonny/yieldmap/internal/s4_geo"
)

// Inputs are the four raw values behind a yield mover; rents are monthly
type Inputs struct {
	FMRCurr   float64
	FMRPrev   float64
	ValueCurr float64
	ValuePrev float64
}

// Valid reports that all four values are present and positive
func (in Inputs) Valid() bool {
	return in.FMRCurr > 0 && in.FMRPrev > 0 && in.ValueCurr > 0 && in.ValuePrev > 0
}

// Derived holds the year-over-year comparison
type Derived struct {
	FMRYoYPct       float64
	HomeValueYoYPct float64
	YieldCurr       float64
	YieldPrior      float64
	YieldDeltaPp    float64
	DivergencePp    float64
}

// Derive computes growth, yields and divergence. Inputs must be Valid.
func Derive(in Inputs) Derived {
	d := Derived{
		FMRYoYPct:       (in.FMRCurr - in.FMRPrev) / in.FMRPrev * 100,
		HomeValueYoYPct: (in.ValueCurr - in.ValuePrev) / in.ValuePrev * 100,
		YieldCurr:       in.FMRCurr * 12 / in.ValueCurr,
		YieldPrior:      in.FMRPrev * 12 / in.ValuePrev,
	}
	d.YieldDeltaPp = (d.YieldCurr - d.YieldPrior) * 100
	d.DivergencePp = d.FMRYoYPct - d.HomeValueYoYPct
	return d
}

// Calculator builds YieldMoverRecords at ZIP, city and county level
// ⭐ SSOT: yield mover 산식은 여기서만
type Calculator struct {
	allow  map[string]bool
	logger zerolog.Logger
}

// NewCalculator creates a calculator; allow limits the city/county rollups
func NewCalculator(allow map[string]bool, logger zerolog.Logger) *Calculator {
	return &Calculator{
		allow:  allow,
		logger: logger.With().Str("component", "s5_yield").Logger(),
	}
}

type zipInputs struct {
	geo contracts.ZipGeo
	in  Inputs
}

// Calculate returns ZIP records (ZIP order) followed by city and county
// rollups (GeoKey order). A ZIP missing any of the four values is excluded.
func (c *Calculator) Calculate(ds *s1_metrics.Dataset, bedroom contracts.BedroomClass, computedAt time.Time) []contracts.YieldMoverRecord {
	base := contracts.YieldMoverRecord{
		BedroomClass: bedroom,
		FMRYear:      ds.Vintages.FMRYear,
		ComputedAt:   computedAt,
	}
	if hv, ok := ds.Vintages.HomeValueFor(bedroom); ok {
		base.HomeValueVintage = hv.Current.String()
	}

	var (
		included []zipInputs
		records  []contracts.YieldMoverRecord
	)
	metrics := ds.Metrics[bedroom]
	for _, m := range metrics {
		in := Inputs{FMRCurr: m.RentCurr, FMRPrev: m.RentPrev, ValueCurr: m.HomeValueCurr, ValuePrev: m.HomeValuePrev}
		if !in.Valid() {
			continue
		}
		included = append(included, zipInputs{geo: m.Geo, in: in})

		r := base
		r.Level = contracts.GeoLevelZip
		r.GeoKey = m.Geo.ZipCode
		r.StateCode = m.Geo.StateCode
		r.DisplayName = m.Geo.ZipCode
		r.ConstituentZipCount = 1
		apply(&r, in)
		records = append(records, r)
	}
	zips := len(records)

	for _, level := range []contracts.GeoLevel{contracts.GeoLevelCity, contracts.GeoLevelCounty} {
		groups, _ := s4_geo.GroupByVariant(level, included, func(z zipInputs) contracts.ZipGeo { return z.geo }, c.allow)
		groups, removed := s4_geo.Dedup(groups, func(g s4_geo.Group[zipInputs]) float64 {
			yields := make([]float64, len(g.Members))
			for i, z := range g.Members {
				yields[i] = Derive(z.in).YieldCurr
			}
			return s4_geo.Median(yields)
		})

		for _, g := range groups {
			r := base
			r.Level = g.Unit.Level
			r.GeoKey = g.Unit.GeoKey
			r.StateCode = g.Unit.StateCode
			r.DisplayName = g.Unit.DisplayName
			r.ConstituentZipCount = len(g.Members)
			apply(&r, medianInputs(g.Members))
			records = append(records, r)
		}

		c.logger.Debug().
			Str("level", string(level)).
			Int("rollups", len(groups)).
			Int("duplicate_variants", removed).
			Msg("yield rollup level")
	}

	c.logger.Info().
		Int("bedroom_class", int(bedroom)).
		Int("zips_considered", len(metrics)).
		Int("zips_included", zips).
		Int("records", len(records)).
		Msg("yield movers calculated")

	return records
}

// UsedZips counts the ZIP-level records of a Calculate result
func UsedZips(records []contracts.YieldMoverRecord) int {
	n := 0
	for _, r := range records {
		if r.Level == contracts.GeoLevelZip {
			n++
		}
	}
	return n
}

// medianInputs takes the median of each raw value across the members
func medianInputs(members []zipInputs) Inputs {
	n := len(members)
	fc, fp, vc, vp := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, z := range members {
		fc[i], fp[i], vc[i], vp[i] = z.in.FMRCurr, z.in.FMRPrev, z.in.ValueCurr, z.in.ValuePrev
	}
	return Inputs{
		FMRCurr:   s4_geo.Median(fc),
		FMRPrev:   s4_geo.Median(fp),
		ValueCurr: s4_geo.Median(vc),
		ValuePrev: s4_geo.Median(vp),
	}
}

func apply(r *contracts.YieldMoverRecord, in Inputs) {
	d := Derive(in)
	r.FMRCurr = in.FMRCurr
	r.FMRPrev = in.FMRPrev
	r.FMRYoYPct = d.FMRYoYPct
	r.HomeValueCurr = in.ValueCurr
	r.HomeValuePrev = in.ValuePrev
	r.HomeValueYoYPct = d.HomeValueYoYPct
	r.YieldCurr = d.YieldCurr
	r.YieldPrior = d.YieldPrior
	r.YieldDeltaPp = d.YieldDeltaPp
	r.DivergencePp = d.DivergencePp
}
