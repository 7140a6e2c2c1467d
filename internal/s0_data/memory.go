package s0_data

import (
	"context"
	"sort"

	"github.com/wonny/yieldmap/internal/contracts"
)

// MemoryRepository serves source rows from memory. It backs fixture runs
// and the stage tests.
type MemoryRepository struct {
	Zips      []contracts.ZipGeo
	Counties  []contracts.CountyFIPSMapping
	Rent      []contracts.MetricSnapshot // SAFMR at zip level, FMR at county level
	HomeValue []contracts.MetricSnapshot
	Tax       []contracts.MetricSnapshot
	Demand    []contracts.MetricSnapshot
	ZipMetro  map[string]string
}

var (
	_ contracts.SourceRepository = (*MemoryRepository)(nil)
	_ contracts.VintageSource    = (*MemoryRepository)(nil)
)

func (m *MemoryRepository) ListStates(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var states []string
	for _, z := range m.Zips {
		if z.StateCode != "" && !seen[z.StateCode] {
			seen[z.StateCode] = true
			states = append(states, z.StateCode)
		}
	}
	sort.Strings(states)
	return states, nil
}

func (m *MemoryRepository) ListZipGeos(_ context.Context, state string) ([]contracts.ZipGeo, error) {
	var out []contracts.ZipGeo
	for _, z := range m.Zips {
		if state == "" || z.StateCode == state {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZipCode < out[j].ZipCode })
	return out, nil
}

func (m *MemoryRepository) CountyFIPSMappings(_ context.Context) ([]contracts.CountyFIPSMapping, error) {
	return append([]contracts.CountyFIPSMapping(nil), m.Counties...), nil
}

func (m *MemoryRepository) zipSet(state string) map[string]bool {
	set := make(map[string]bool)
	for _, z := range m.Zips {
		if state == "" || z.StateCode == state {
			set[z.ZipCode] = true
		}
	}
	return set
}

func (m *MemoryRepository) countySet(state string) map[string]bool {
	set := make(map[string]bool)
	for _, z := range m.Zips {
		if (state == "" || z.StateCode == state) && z.CountyFIPS != "" {
			set[z.CountyFIPS] = true
		}
	}
	for _, c := range m.Counties {
		if state == "" || c.StateCode == state {
			set[c.FIPS] = true
		}
	}
	return set
}

func (m *MemoryRepository) RentSnapshots(_ context.Context, state string, years []int) ([]contracts.MetricSnapshot, error) {
	zips, counties := m.zipSet(state), m.countySet(state)
	wantYear := make(map[int]bool, len(years))
	for _, y := range years {
		wantYear[y] = true
	}

	var out []contracts.MetricSnapshot
	for _, s := range m.Rent {
		if !wantYear[s.Period.Year] {
			continue
		}
		if (s.Level == contracts.GeoLevelZip && zips[s.GeoKey]) || (s.Level == contracts.GeoLevelCounty && counties[s.GeoKey]) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) HomeValueSnapshots(_ context.Context, state string, vintages []contracts.Vintage) ([]contracts.MetricSnapshot, error) {
	zips := m.zipSet(state)

	type classPeriod struct {
		class  contracts.BedroomClass
		period contracts.PeriodKey
	}
	want := make(map[classPeriod]bool)
	for _, v := range vintages {
		want[classPeriod{v.Bedroom, v.Current}] = true
		want[classPeriod{v.Bedroom, v.Prior}] = true
	}

	var out []contracts.MetricSnapshot
	for _, s := range m.HomeValue {
		if zips[s.GeoKey] && want[classPeriod{s.BedroomClass, s.Period}] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) TaxSnapshots(_ context.Context, state string, vintage contracts.PeriodKey) ([]contracts.MetricSnapshot, error) {
	zips := m.zipSet(state)
	var out []contracts.MetricSnapshot
	for _, s := range m.Tax {
		if zips[s.GeoKey] && s.Period.Year == vintage.Year {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) DemandSnapshots(_ context.Context, period contracts.PeriodKey) ([]contracts.MetricSnapshot, error) {
	var out []contracts.MetricSnapshot
	for _, s := range m.Demand {
		if s.Period == period {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ZipDemandRegions(_ context.Context, state string) (map[string]string, error) {
	zips := m.zipSet(state)
	out := make(map[string]string)
	for zip, region := range m.ZipMetro {
		if zips[zip] {
			out[zip] = region
		}
	}
	return out, nil
}

// LatestPeriod mirrors the SQL vintage queries over the in-memory rows
func (m *MemoryRepository) LatestPeriod(_ context.Context, source contracts.SourceKind, bedroom contracts.BedroomClass, ceiling contracts.PeriodKey) (contracts.PeriodKey, bool, error) {
	var rows []contracts.MetricSnapshot
	switch source {
	case contracts.SourceRent:
		rows = m.Rent
	case contracts.SourceHomeValue:
		rows = m.HomeValue
	case contracts.SourceTaxRate:
		rows = m.Tax
	case contracts.SourceDemand:
		rows = m.Demand
	}

	var latest contracts.PeriodKey
	found := false
	for _, s := range rows {
		if bedroom != contracts.BedroomAny && s.BedroomClass != bedroom {
			continue
		}
		if _, ok := s.ValidValue(); !ok {
			continue
		}
		if !ceiling.IsZero() && afterCeiling(s.Period, ceiling) {
			continue
		}
		if !found || latest.Before(s.Period) {
			latest, found = s.Period, true
		}
	}
	return latest, found, nil
}

func afterCeiling(p, ceiling contracts.PeriodKey) bool {
	if ceiling.IsAnnual() || p.IsAnnual() {
		return p.Year > ceiling.Year
	}
	return ceiling.Before(p)
}
