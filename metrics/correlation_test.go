package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numerai/pkg/errors"
)

func TestPercentileRankFirst(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"ascending", []float64{0.2, 0.4, 0.8}, []float64{1.0 / 3, 2.0 / 3, 1}},
		{"descending", []float64{3, 2, 1}, []float64{1, 2.0 / 3, 1.0 / 3}},
		{"ties by first seen", []float64{0.5, 0.5, 0.1, 0.5}, []float64{0.5, 0.75, 0.25, 1}},
		{"nan keeps nan", []float64{0.3, nan, 0.1}, []float64{1, nan, 0.5}},
		{"leading nan", []float64{nan, 0.2, 0.2, 0.1}, []float64{nan, 2.0 / 3, 1, 1.0 / 3}},
		{"single", []float64{7}, []float64{1}},
		{"empty", []float64{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentileRankFirst(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got[i]), "index %d", i)
					continue
				}
				assert.InDelta(t, tt.want[i], got[i], 1e-12, "index %d", i)
			}
		})
	}
}

func TestPercentileRankFirstDoesNotMutateInput(t *testing.T) {
	in := []float64{0.9, 0.1, 0.5}
	PercentileRankFirst(in)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, in)
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name    string
		x, y    []float64
		want    float64
		wantNaN bool
	}{
		{"perfect positive", []float64{1, 2, 3}, []float64{2, 4, 6}, 1, false},
		{"perfect negative", []float64{1, 2, 3}, []float64{3, 2, 1}, -1, false},
		{"zero variance", []float64{1, 1, 1}, []float64{1, 2, 3}, 0, true},
		{"single observation", []float64{1}, []float64{2}, 0, true},
		{"nan input", []float64{1, math.NaN(), 3}, []float64{1, 2, 3}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pearson(tt.x, tt.y)
			require.NoError(t, err)
			if tt.wantNaN {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPearsonLengthMismatch(t *testing.T) {
	_, err := Pearson([]float64{1, 2}, []float64{1})
	require.Error(t, err)

	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestRankCorrelation(t *testing.T) {
	target := []float64{0.1, 0.5, 0.9}
	prediction := []float64{0.2, 0.4, 0.8}

	got, err := RankCorrelation(target, prediction)
	require.NoError(t, err)

	want, err := Pearson(target, []float64{1.0 / 3, 2.0 / 3, 1})
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestRankCorrelationMonotonicInvariance(t *testing.T) {
	target := []float64{0.25, 0.75, 0.5, 0, 1, 0.5}
	prediction := []float64{0.3, -1.2, 0.7, 0.1, 2.5, 0.05}

	transformed := make([]float64, len(prediction))
	for i, p := range prediction {
		transformed[i] = math.Exp(3*p) + 10
	}

	a, err := RankCorrelation(target, prediction)
	require.NoError(t, err)
	b, err := RankCorrelation(target, transformed)
	require.NoError(t, err)
	assert.InDelta(t, a, b, 1e-12)
}
