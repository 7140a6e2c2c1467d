package s4_geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input is not reordered")
}

func TestMeanStdDev(t *testing.T) {
	m, s := MeanStdDev([]float64{7})
	assert.Equal(t, 7.0, m)
	assert.Equal(t, 0.0, s)

	m, s = MeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, m, 1e-12)
	assert.InDelta(t, 2.138, s, 1e-3)

	assert.Equal(t, 0.0, Mean(nil))
}
