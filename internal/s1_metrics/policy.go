package s1_metrics

import (
	"github.com/wonny/yieldmap/internal/contracts"
)

type rentKey struct {
	geo     string // ZIP for SAFMR, county FIPS for FMR
	year    int
	bedroom contracts.BedroomClass
}

type zipYear struct {
	zip  string
	year int
}

// rentIndex holds valid rent rows of both standards
type rentIndex struct {
	safmr     map[rentKey]float64
	smallArea map[zipYear]bool // ZIP has at least one valid SAFMR row that year
	countyFMR map[rentKey]float64
}

func newRentIndex(snapshots []contracts.MetricSnapshot) *rentIndex {
	idx := &rentIndex{
		safmr:     make(map[rentKey]float64),
		smallArea: make(map[zipYear]bool),
		countyFMR: make(map[rentKey]float64),
	}

	for _, s := range snapshots {
		if !s.BedroomClass.IsRentClass() {
			continue
		}
		v, ok := s.ValidValue()
		if !ok {
			continue
		}

		key := rentKey{geo: s.GeoKey, year: s.Period.Year, bedroom: s.BedroomClass}
		switch s.Provenance {
		case contracts.ProvenanceSAFMR:
			idx.safmr[key] = v
			idx.smallArea[zipYear{s.GeoKey, s.Period.Year}] = true
		case contracts.ProvenanceFMR:
			idx.countyFMR[key] = v
		}
	}
	return idx
}

// Rent selects the monthly rent of a ZIP. The small-area standard wins for
// every bedroom class of a ZIP-year once that ZIP-year has any SAFMR row;
// otherwise the county standard is inherited through countyFIPS.
func (idx *rentIndex) Rent(zip, countyFIPS string, year int, bedroom contracts.BedroomClass) (float64, string, bool) {
	if idx.smallArea[zipYear{zip, year}] {
		v, ok := idx.safmr[rentKey{zip, year, bedroom}]
		return v, contracts.ProvenanceSAFMR, ok
	}

	if countyFIPS == "" {
		return 0, "", false
	}
	v, ok := idx.countyFMR[rentKey{countyFIPS, year, bedroom}]
	return v, contracts.ProvenanceFMR, ok
}

type homeValueKey struct {
	zip    string
	class  contracts.BedroomClass
	period contracts.PeriodKey
}

func newHomeValueIndex(snapshots []contracts.MetricSnapshot) map[homeValueKey]float64 {
	idx := make(map[homeValueKey]float64, len(snapshots))
	for _, s := range snapshots {
		if v, ok := s.ValidValue(); ok {
			idx[homeValueKey{s.GeoKey, s.BedroomClass, s.Period}] = v
		}
	}
	return idx
}

// validByKey indexes valid values by GeoKey; later rows win
func validByKey(snapshots []contracts.MetricSnapshot) map[string]float64 {
	idx := make(map[string]float64, len(snapshots))
	for _, s := range snapshots {
		if v, ok := s.ValidValue(); ok {
			idx[s.GeoKey] = v
		}
	}
	return idx
}
