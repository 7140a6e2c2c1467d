// Package s3_score composes per-ZIP investment scores.
package s3_score

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/s1_metrics"
	"github.com/wonny/yieldmap/internal/s2_rank"
	"github.com/wonny/yieldmap/internal/scoreconfig"
)

// Params are the scoring constants
type Params struct {
	Cap               float64
	ReferenceNetYield float64 // net yield scoring 100
	Sensitivity       float64
	MultiplierMin     float64
	MultiplierMax     float64
}

// ParamsFrom extracts the scoring constants from the run config
func ParamsFrom(cfg *scoreconfig.Config) Params {
	return Params{
		Cap:               cfg.Score.Cap,
		ReferenceNetYield: cfg.Score.ReferenceNetYield,
		Sensitivity:       cfg.Demand.Sensitivity,
		MultiplierMin:     cfg.Demand.MultiplierMin,
		MultiplierMax:     cfg.Demand.MultiplierMax,
	}
}

// BaseScore maps net yield linearly onto [0, cap]: the reference yield
// scores 100, non-positive yields score 0.
func (p Params) BaseScore(netYield float64) float64 {
	score := netYield / p.ReferenceNetYield * 100
	return math.Min(math.Max(score, 0), p.Cap)
}

// Multiplier returns the demand multiplier for a percentile in [0, 100].
// Missing demand is neutral.
func (p Params) Multiplier(percentile float64, ok bool) float64 {
	if !ok {
		return 1.0
	}
	m := 1 + p.Sensitivity*(percentile-50)/100
	return math.Min(math.Max(m, p.MultiplierMin), p.MultiplierMax)
}

// Adjusted applies the multiplier to the capped base and caps again
func (p Params) Adjusted(cappedBase, multiplier float64) float64 {
	return math.Min(cappedBase*multiplier, p.Cap)
}

// Composer builds ScoreRecords from loaded metrics
// ⭐ SSOT: 점수 산식은 여기서만
type Composer struct {
	params Params
	logger zerolog.Logger
}

// NewComposer creates a new composer
func NewComposer(params Params, logger zerolog.Logger) *Composer {
	return &Composer{
		params: params,
		logger: logger.With().Str("component", "s3_score").Logger(),
	}
}

// Compose returns one ScoreRecord per ZIP for bedroom, in ZIP order.
// computedAt is stamped on every record so reruns stay byte-identical.
func (c *Composer) Compose(ds *s1_metrics.Dataset, bedroom contracts.BedroomClass, computedAt time.Time) []contracts.ScoreRecord {
	demand := s2_rank.NewDistribution(ds.DemandValues)

	vintages := recordVintages{}
	if hv, ok := ds.Vintages.HomeValueFor(bedroom); ok {
		vintages.homeValue = hv.Current.String()
	}
	if ds.Vintages.Tax != nil {
		vintages.tax = ds.Vintages.Tax.Current.String()
	}
	if ds.Vintages.Demand != nil {
		vintages.demand = ds.Vintages.Demand.Current.String()
	}

	metrics := ds.Metrics[bedroom]
	records := make([]contracts.ScoreRecord, 0, len(metrics))
	sufficient := 0
	for _, m := range metrics {
		r := c.score(m, demand, ds.Vintages.FMRYear, vintages, computedAt)
		if r.DataSufficient {
			sufficient++
		}
		records = append(records, r)
	}

	c.logger.Info().
		Int("bedroom_class", int(bedroom)).
		Int("records", len(records)).
		Int("sufficient", sufficient).
		Msg("scores composed")

	return records
}

type recordVintages struct {
	homeValue string
	tax       string
	demand    string
}

// score builds one record. Missing rent, home value or tax leaves the
// derived fields nil and DataSufficient false; demand never affects the base.
func (c *Composer) score(m s1_metrics.ZipMetrics, demand *s2_rank.Distribution, fmrYear int, v recordVintages, computedAt time.Time) contracts.ScoreRecord {
	r := contracts.ScoreRecord{
		ZipCode:      m.Geo.ZipCode,
		StateCode:    m.Geo.StateCode,
		CityName:     m.Geo.CityName,
		CountyName:   m.Geo.CountyName,
		CountyFIPS:   m.Geo.CountyFIPS,
		BedroomClass: m.Bedroom,
		FMRYear:      fmrYear,

		MonthlyRent:   contracts.FloatOrNil(m.RentCurr, m.HasRent()),
		PropertyValue: contracts.FloatOrNil(m.HomeValueCurr, m.HasHomeValue()),
		TaxRate:       contracts.FloatOrNil(m.TaxRate, m.HasTax()),
		RentSource:    m.RentSource,

		HomeValueVintage: v.homeValue,
		TaxVintage:       v.tax,
		DemandVintage:    v.demand,
		ComputedAt:       computedAt,
	}

	var (
		percentile float64
		hasDemand  bool
	)
	if m.HasDemand() {
		percentile, hasDemand = demand.Rank(m.DemandValue)
	}
	r.DemandScore = contracts.FloatOrNil(percentile, hasDemand)
	r.DemandMultiplier = c.params.Multiplier(percentile, hasDemand)

	r.DataSufficient = m.HasRent() && m.HasHomeValue() && m.HasTax()
	if !r.DataSufficient {
		return r
	}

	annualRent := m.RentCurr * 12
	annualTaxes := m.HomeValueCurr * m.TaxRate
	netYield := (annualRent - annualTaxes) / m.HomeValueCurr
	base := c.params.BaseScore(netYield)

	r.AnnualRent = contracts.Float(annualRent)
	r.AnnualTaxes = contracts.Float(annualTaxes)
	r.NetYield = contracts.Float(netYield)
	r.RentToPriceRatio = contracts.Float(m.RentCurr / m.HomeValueCurr)
	r.BaseScore = contracts.Float(base)
	r.AdjustedScore = contracts.Float(c.params.Adjusted(base, r.DemandMultiplier))

	return r
}
