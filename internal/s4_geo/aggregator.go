// Package s4_geo rolls ZIP results up to city, county and state.
package s4_geo

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/yieldmap/internal/contracts"
)

// Aggregator builds ScoreRollups
// ⭐ SSOT: 지역 집계는 여기서만
type Aggregator struct {
	allow  map[string]bool
	logger zerolog.Logger
}

// NewAggregator creates an aggregator limited to the allowed states
func NewAggregator(allow map[string]bool, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		allow:  allow,
		logger: logger.With().Str("component", "s4_geo").Logger(),
	}
}

func recordGeo(r contracts.ScoreRecord) contracts.ZipGeo {
	return contracts.ZipGeo{
		ZipCode:    r.ZipCode,
		StateCode:  r.StateCode,
		CityName:   r.CityName,
		CountyName: r.CountyName,
		CountyFIPS: r.CountyFIPS,
	}
}

// Aggregate rolls up one bedroom class at every rollup level. Only
// sufficient records feed the statistics; a geography with none is omitted.
// Output is ordered by level, then GeoKey.
func (a *Aggregator) Aggregate(records []contracts.ScoreRecord, computedAt time.Time) []contracts.ScoreRollup {
	var rollups []contracts.ScoreRollup

	for _, level := range contracts.RollupLevels {
		groups, dropped := GroupByVariant(level, records, recordGeo, a.allow)
		groups, removed := Dedup(groups, func(g Group[contracts.ScoreRecord]) float64 {
			return Median(adjustedScores(g.Members))
		})

		n := 0
		for _, g := range groups {
			r, ok := a.rollup(g, computedAt)
			if !ok {
				continue
			}
			rollups = append(rollups, r)
			n++
		}

		a.logger.Info().
			Str("level", string(level)).
			Int("rollups", n).
			Int("duplicate_variants", removed).
			Int("unplaced_zips", dropped).
			Msg("rollup level aggregated")
	}

	sort.SliceStable(rollups, func(i, j int) bool {
		if rollups[i].Level != rollups[j].Level {
			return levelOrder(rollups[i].Level) < levelOrder(rollups[j].Level)
		}
		return rollups[i].GeoKey < rollups[j].GeoKey
	})
	return rollups
}

func (a *Aggregator) rollup(g Group[contracts.ScoreRecord], computedAt time.Time) (contracts.ScoreRollup, bool) {
	var scores, yields, values, rents []float64
	for _, r := range g.Members {
		if !r.DataSufficient {
			continue
		}
		scores = append(scores, *r.AdjustedScore)
		yields = append(yields, *r.NetYield)
		values = append(values, *r.PropertyValue)
		rents = append(rents, *r.AnnualRent)
	}
	if len(scores) == 0 {
		return contracts.ScoreRollup{}, false
	}

	first := g.Members[0]
	meanScore, stdDev := MeanStdDev(scores)

	return contracts.ScoreRollup{
		Level:         g.Unit.Level,
		GeoKey:        g.Unit.GeoKey,
		StateCode:     g.Unit.StateCode,
		DisplayName:   g.Unit.DisplayName,
		BedroomClass:  first.BedroomClass,
		FMRYear:       first.FMRYear,
		ZipCount:      len(scores),
		TotalZipCount: len(g.Members),

		MedianScore:         Median(scores),
		MeanScore:           meanScore,
		ScoreStdDev:         stdDev,
		MedianNetYield:      Median(yields),
		MeanNetYield:        Mean(yields),
		MedianPropertyValue: Median(values),
		MeanPropertyValue:   Mean(values),
		MedianAnnualRent:    Median(rents),
		MeanAnnualRent:      Mean(rents),

		HomeValueVintage: first.HomeValueVintage,
		TaxVintage:       first.TaxVintage,
		ComputedAt:       computedAt,
	}, true
}

func adjustedScores(records []contracts.ScoreRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if r.DataSufficient && r.AdjustedScore != nil {
			out = append(out, *r.AdjustedScore)
		}
	}
	return out
}

func levelOrder(l contracts.GeoLevel) int {
	for i, rl := range contracts.RollupLevels {
		if rl == l {
			return i
		}
	}
	return len(contracts.RollupLevels)
}
