package s2_rank

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_MinMax(t *testing.T) {
	d := NewDistribution([]float64{42, 7, 19, 88, 3})

	low, ok := d.Rank(3)
	require.True(t, ok)
	assert.Equal(t, 0.0, low)

	high, _ := d.Rank(88)
	assert.Equal(t, 100.0, high)

	mid, _ := d.Rank(19)
	assert.Equal(t, 50.0, mid)
}

func TestRank_Singleton(t *testing.T) {
	r, ok := NewDistribution([]float64{12.5}).Rank(12.5)
	require.True(t, ok)
	assert.Equal(t, 0.0, r)
}

func TestRank_Empty(t *testing.T) {
	_, ok := NewDistribution(nil).Rank(1)
	assert.False(t, ok)
}

func TestRank_TiesShareRank(t *testing.T) {
	p := Percentiles([]float64{10, 20, 20, 30})

	assert.Len(t, p, 3)
	assert.Equal(t, 0.0, p[10])
	assert.InDelta(t, 33.333, p[20], 0.001)
	assert.Equal(t, 100.0, p[30])
}

func TestRank_TiedMaximumBelow100(t *testing.T) {
	p := Percentiles([]float64{1, 5, 5})
	assert.Equal(t, 0.0, p[1])
	assert.InDelta(t, 50.0, p[5], 1e-9)
}

func TestRank_IgnoresNonFinite(t *testing.T) {
	d := NewDistribution([]float64{math.NaN(), 1, math.Inf(1), 2})
	assert.Equal(t, 2, d.Len())

	_, ok := d.Rank(math.NaN())
	assert.False(t, ok)
}

func TestRank_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(200)
		values := make([]float64, n)
		for i := range values {
			values[i] = math.Round(rng.NormFloat64()*100) / 10
		}

		for v, r := range Percentiles(values) {
			assert.GreaterOrEqual(t, r, 0.0, "value %v", v)
			assert.LessOrEqual(t, r, 100.0, "value %v", v)
		}
	}
}
