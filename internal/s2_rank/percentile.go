// Package s2_rank converts raw metric readings into percentile ranks.
package s2_rank

import (
	"math"
	"sort"
)

// Distribution is one metric's readings for one run
// ⭐ SSOT: 백분위 계산은 여기서만
type Distribution struct {
	sorted []float64
}

// NewDistribution copies and sorts the finite values
func NewDistribution(values []float64) *Distribution {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	return &Distribution{sorted: sorted}
}

// Len returns the number of readings
func (d *Distribution) Len() int {
	return len(d.sorted)
}

// Rank returns (count of readings strictly below v) / (n-1) * 100.
// Equal readings share a rank. A single reading ranks 0; an empty
// distribution reports false.
func (d *Distribution) Rank(v float64) (float64, bool) {
	n := len(d.sorted)
	if n == 0 || math.IsNaN(v) {
		return 0, false
	}
	if n == 1 {
		return 0, true
	}

	below := sort.SearchFloat64s(d.sorted, v)
	return float64(below) / float64(n-1) * 100, true
}

// Percentiles maps every distinct value to its rank
func Percentiles(values []float64) map[float64]float64 {
	d := NewDistribution(values)
	out := make(map[float64]float64, d.Len())
	for _, v := range d.sorted {
		if _, done := out[v]; done {
			continue
		}
		out[v], _ = d.Rank(v)
	}
	return out
}
