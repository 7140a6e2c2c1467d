package s1_metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/yieldmap/internal/contracts"
	"github.com/wonny/yieldmap/internal/s0_data/vintage"
)

// CountyResolver returns the canonical county FIPS of a ZIP
type CountyResolver interface {
	CountyFIPS(z contracts.ZipGeo) (string, bool)
}

// Dataset is the immutable input of every later stage
type Dataset struct {
	Vintages *vintage.Set
	Zips     []contracts.ZipGeo // ordered by ZIP, canonical county FIPS
	Metrics  map[contracts.BedroomClass][]ZipMetrics

	// DemandValues holds one valid reading per demand region, nationally
	DemandValues []float64

	// UnresolvedCounty lists ZIPs with no canonical county FIPS
	UnresolvedCounty []contracts.ZipGeo
}

// Loader pulls source rows for the resolved vintages
// ⭐ SSOT: 원천 → ZIP 지표 변환은 여기서만
type Loader struct {
	repo        contracts.SourceRepository
	counties    CountyResolver
	parallelism int
	logger      zerolog.Logger
}

// NewLoader creates a new loader. counties may be nil, in which case only
// the ZIP's own FIPS is used.
func NewLoader(repo contracts.SourceRepository, counties CountyResolver, parallelism int, logger zerolog.Logger) *Loader {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Loader{
		repo:        repo,
		counties:    counties,
		parallelism: parallelism,
		logger:      logger.With().Str("component", "s1_metrics").Logger(),
	}
}

type stateResult struct {
	zips       []contracts.ZipGeo
	unresolved []contracts.ZipGeo
	metrics    map[contracts.BedroomClass][]ZipMetrics
}

// Load loads every ZIP of state ("" = all states) for the given rent classes.
// States load concurrently; the result does not depend on their order.
func (l *Loader) Load(ctx context.Context, set *vintage.Set, state string, bedrooms []contracts.BedroomClass) (*Dataset, error) {
	start := time.Now()

	states := []string{state}
	if state == "" {
		var err error
		states, err = l.repo.ListStates(ctx)
		if err != nil {
			return nil, fmt.Errorf("list states: %w", err)
		}
	}

	// demand percentile needs the national distribution even for one state
	demandByRegion := map[string]float64{}
	if set.Demand != nil {
		snapshots, err := l.repo.DemandSnapshots(ctx, set.Demand.Current)
		if err != nil {
			return nil, fmt.Errorf("load demand: %w", err)
		}
		demandByRegion = validByKey(snapshots)
	}

	results := make([]stateResult, len(states))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)

	for i, st := range states {
		g.Go(func() error {
			res, err := l.loadState(gctx, set, st, bedrooms, demandByRegion)
			if err != nil {
				return fmt.Errorf("load state %s: %w", st, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{
		Vintages:     set,
		Metrics:      make(map[contracts.BedroomClass][]ZipMetrics, len(bedrooms)),
		DemandValues: demandValues(demandByRegion),
	}
	for _, res := range results {
		ds.Zips = append(ds.Zips, res.zips...)
		ds.UnresolvedCounty = append(ds.UnresolvedCounty, res.unresolved...)
		for b, m := range res.metrics {
			ds.Metrics[b] = append(ds.Metrics[b], m...)
		}
	}

	sort.Slice(ds.Zips, func(i, j int) bool { return ds.Zips[i].ZipCode < ds.Zips[j].ZipCode })
	sort.Slice(ds.UnresolvedCounty, func(i, j int) bool {
		return ds.UnresolvedCounty[i].ZipCode < ds.UnresolvedCounty[j].ZipCode
	})
	for b := range ds.Metrics {
		m := ds.Metrics[b]
		sort.Slice(m, func(i, j int) bool { return m[i].Geo.ZipCode < m[j].Geo.ZipCode })
	}

	l.logger.Info().
		Int("states", len(states)).
		Int("zips", len(ds.Zips)).
		Int("unresolved_county", len(ds.UnresolvedCounty)).
		Int("demand_regions", len(ds.DemandValues)).
		Dur("duration", time.Since(start)).
		Msg("metrics loaded")

	for _, z := range ds.UnresolvedCounty {
		l.logger.Debug().
			Str("zip", z.ZipCode).
			Str("state", z.StateCode).
			Str("county_name", z.CountyName).
			Msg("county FIPS unresolved")
	}

	return ds, nil
}

func (l *Loader) loadState(ctx context.Context, set *vintage.Set, state string, bedrooms []contracts.BedroomClass, demandByRegion map[string]float64) (stateResult, error) {
	var res stateResult

	zips, err := l.repo.ListZipGeos(ctx, state)
	if err != nil {
		return res, err
	}

	rentRows, err := l.repo.RentSnapshots(ctx, state, []int{set.FMRYear, set.FMRYear - 1})
	if err != nil {
		return res, err
	}
	rents := newRentIndex(rentRows)

	hvRows, err := l.repo.HomeValueSnapshots(ctx, state, set.HomeValueList())
	if err != nil {
		return res, err
	}
	homeValues := newHomeValueIndex(hvRows)

	taxes := map[string]float64{}
	if set.Tax != nil {
		taxRows, err := l.repo.TaxSnapshots(ctx, state, set.Tax.Current)
		if err != nil {
			return res, err
		}
		taxes = validByKey(taxRows)
	}

	regions := map[string]string{}
	if set.Demand != nil {
		regions, err = l.repo.ZipDemandRegions(ctx, state)
		if err != nil {
			return res, err
		}
	}

	res.metrics = make(map[contracts.BedroomClass][]ZipMetrics, len(bedrooms))
	for _, z := range zips {
		fips, ok := l.countyFIPS(z)
		z.CountyFIPS = fips
		if !ok {
			res.unresolved = append(res.unresolved, z)
		}
		res.zips = append(res.zips, z)

		for _, b := range bedrooms {
			m := ZipMetrics{Geo: z, Bedroom: b}

			m.RentCurr, m.RentSource, _ = rents.Rent(z.ZipCode, fips, set.FMRYear, b)
			m.RentPrev, _, _ = rents.Rent(z.ZipCode, fips, set.FMRYear-1, b)
			if m.RentCurr == 0 {
				m.RentSource = ""
			}

			if hv, ok := set.HomeValueFor(b); ok {
				m.HomeValueCurr = homeValues[homeValueKey{z.ZipCode, hv.Bedroom, hv.Current}]
				m.HomeValuePrev = homeValues[homeValueKey{z.ZipCode, hv.Bedroom, hv.Prior}]
			}

			m.TaxRate = taxes[z.ZipCode]

			if region, ok := regions[z.ZipCode]; ok {
				m.DemandRegion = region
				m.DemandValue = demandByRegion[region]
			}

			res.metrics[b] = append(res.metrics[b], m)
		}
	}

	return res, nil
}

func (l *Loader) countyFIPS(z contracts.ZipGeo) (string, bool) {
	if l.counties != nil {
		return l.counties.CountyFIPS(z)
	}
	if contracts.IsValidFIPS(z.CountyFIPS) {
		return z.CountyFIPS, true
	}
	return "", false
}

func demandValues(byRegion map[string]float64) []float64 {
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	out := make([]float64, 0, len(regions))
	for _, r := range regions {
		out = append(out, byRegion[r])
	}
	return out
}
