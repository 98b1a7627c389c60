package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/numerai/pkg/errors"
)

// PercentileRankFirst returns the percentile rank of every value in x.
//
// Ranks run from 1/n to 1 where n is the number of non-NaN values. Ties are
// broken by position: the value seen first gets the lower rank, so every
// rank is distinct. NaN inputs keep a NaN rank and do not count toward n.
func PercentileRankFirst(x []float64) []float64 {
	ranks := make([]float64, len(x))
	vals := make([]float64, 0, len(x))
	orig := make([]int, 0, len(x)) // position in x of each entry of vals
	for i, v := range x {
		if math.IsNaN(v) {
			ranks[i] = math.NaN()
			continue
		}
		vals = append(vals, v)
		orig = append(orig, i)
	}

	n := float64(len(vals))
	inds := make([]int, len(vals))
	floats.ArgsortStable(vals, inds)
	for pos, k := range inds {
		ranks[orig[k]] = float64(pos+1) / n
	}
	return ranks
}

// Pearson returns the Pearson correlation coefficient of x and y.
//
// The result is NaN when fewer than two observations are given, when
// either input has zero variance, or when any value is NaN.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.NewDimensionError("Pearson", len(x), len(y), 0)
	}
	if len(x) < 2 {
		return math.NaN(), nil
	}
	return stat.Correlation(x, y, nil), nil
}

// RankCorrelation correlates target with the first-seen percentile rank of
// prediction. This is the per-era score of a submission.
func RankCorrelation(target, prediction []float64) (float64, error) {
	if len(target) != len(prediction) {
		return 0, errors.NewDimensionError("RankCorrelation", len(target), len(prediction), 0)
	}
	return Pearson(target, PercentileRankFirst(prediction))
}
