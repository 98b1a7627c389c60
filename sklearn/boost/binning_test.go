package boost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestComputeCuts(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		maxBin int
		want   []float64
	}{
		{"empty", nil, 4, nil},
		{"constant", []float64{1, 1, 1}, 4, nil},
		{"few distinct values use midpoints", []float64{0, 0, 0.5, 1}, 4, []float64{0.25, 0.75}},
		{"quantiles when distinct exceeds max bin", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, []float64{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeCuts(tt.sorted, tt.maxBin))
		})
	}
}

func TestComputeCutsBoundedByMaxBin(t *testing.T) {
	sorted := make([]float64, 1000)
	for i := range sorted {
		sorted[i] = float64(i)
	}
	cuts := computeCuts(sorted, 16)
	assert.LessOrEqual(t, len(cuts), 15)
	for i := 1; i < len(cuts); i++ {
		assert.Greater(t, cuts[i], cuts[i-1])
	}
}

func TestBinnedData(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 10,
		0.5, math.NaN(),
		1, 30,
		0.5, 20,
	})
	d := newBinnedData(X, 256, 2)

	require.Len(t, d.bins, 2)
	assert.Equal(t, []uint16{0, 1, 2, 1}, d.bins[0])

	missing := d.mapper.missingBin(1)
	assert.Equal(t, missing, d.bins[1][1])
	assert.Equal(t, uint16(0), d.bins[1][0])
	assert.Equal(t, uint16(2), d.bins[1][2])

	// a split after bin 0 of feature 0 sends values below the threshold left
	assert.Equal(t, 0.25, d.mapper.threshold(0, 0))
}
