package s4_geo

import (
	"sort"
	"strings"

	"github.com/wonny/yieldmap/internal/contracts"
)

// Group is one spelling variant of a canonical geography and its ZIP members
type Group[T any] struct {
	Unit    contracts.GeoUnit
	Variant string // raw spelling + state
	Members []T
}

// unitOf returns the canonical unit and spelling variant of a ZIP at level.
// ok is false when the ZIP cannot be placed (no city, unresolved county).
func unitOf(level contracts.GeoLevel, z contracts.ZipGeo) (contracts.GeoUnit, string, bool) {
	state := strings.ToUpper(strings.TrimSpace(z.StateCode))
	unit := contracts.GeoUnit{Level: level, StateCode: state}

	switch level {
	case contracts.GeoLevelCity:
		city := strings.TrimSpace(z.CityName)
		norm := NormalizeCityName(city)
		if norm == "" {
			return unit, "", false
		}
		unit.GeoKey = contracts.CityKey(norm, state)
		unit.DisplayName = city
		return unit, city + "|" + state, true

	case contracts.GeoLevelCounty:
		if !contracts.IsValidFIPS(z.CountyFIPS) {
			return unit, "", false
		}
		county := strings.TrimSpace(z.CountyName)
		unit.GeoKey = z.CountyFIPS
		unit.DisplayName = county
		return unit, county + "|" + state, true

	case contracts.GeoLevelState:
		if state == "" {
			return unit, "", false
		}
		unit.GeoKey = state
		unit.DisplayName = state
		return unit, state, true
	}

	return unit, "", false
}

// GroupByVariant groups items by (canonical key, spelling variant) at level.
// States outside allow are excluded; unplaceable ZIPs are counted in dropped.
func GroupByVariant[T any](level contracts.GeoLevel, items []T, geoOf func(T) contracts.ZipGeo, allow map[string]bool) (groups []Group[T], dropped int) {
	type variantKey struct {
		geoKey  string
		variant string
	}
	index := make(map[variantKey]int)

	for _, item := range items {
		z := geoOf(item)
		if !allow[strings.ToUpper(z.StateCode)] {
			continue
		}

		unit, variant, ok := unitOf(level, z)
		if !ok {
			dropped++
			continue
		}

		k := variantKey{unit.GeoKey, variant}
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Unit: unit, Variant: variant})
		}
		groups[i].Members = append(groups[i].Members, item)
	}
	return groups, dropped
}

// Dedup keeps one group per canonical key: the larger member count wins,
// then the higher tiebreak metric, then the lexically smaller variant.
// Output is ordered by GeoKey.
func Dedup[T any](groups []Group[T], tiebreak func(Group[T]) float64) (kept []Group[T], removed int) {
	best := make(map[string]int)
	metric := make([]float64, len(groups))

	for i, g := range groups {
		metric[i] = tiebreak(g)

		j, seen := best[g.Unit.GeoKey]
		if !seen {
			best[g.Unit.GeoKey] = i
			continue
		}
		removed++
		if better(g, metric[i], groups[j], metric[j]) {
			best[g.Unit.GeoKey] = i
		}
	}

	kept = make([]Group[T], 0, len(best))
	for _, i := range best {
		kept = append(kept, groups[i])
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Unit.GeoKey < kept[j].Unit.GeoKey })
	return kept, removed
}

func better[T any](a Group[T], am float64, b Group[T], bm float64) bool {
	if len(a.Members) != len(b.Members) {
		return len(a.Members) > len(b.Members)
	}
	if am != bm {
		return am > bm
	}
	return a.Variant < b.Variant
}
