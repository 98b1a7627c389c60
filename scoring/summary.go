package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the era scores of one partition.
//
// Means and standard deviations are not NaN-filtered: a single NaN era
// makes them NaN.
type Summary struct {
	Eras            int     `yaml:"eras"`
	CorrelationMean float64 `yaml:"correlation_mean"`
	CorrelationStd  float64 `yaml:"correlation_std"` // sample std, n-1
	PayoutMean      float64 `yaml:"payout_mean"`
	Sharpe          float64 `yaml:"sharpe"`
	Min             float64 `yaml:"min"`
	Max             float64 `yaml:"max"`
}

// Summarize computes the summary of scores under cfg.
func Summarize(scores EraScores, cfg Config) Summary {
	values := scores.Values()
	payouts := PayoutAll(values, cfg)

	s := Summary{
		Eras:            len(values),
		CorrelationMean: mean(values),
		CorrelationStd:  stdDev(values),
		PayoutMean:      mean(payouts),
		Min:             math.NaN(),
		Max:             math.NaN(),
	}
	s.Sharpe = s.CorrelationMean / s.CorrelationStd
	if len(values) > 0 && !floats.HasNaN(values) {
		s.Min = floats.Min(values)
		s.Max = floats.Max(values)
	}
	return s
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

func stdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}
