// Package scoring evaluates predictions era by era and converts the scores
// into payouts.
package scoring

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/numerai/dataset"
	"github.com/YuminosukeSato/numerai/metrics"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/pkg/log"
)

// EraScore is the correlation of one era.
type EraScore struct {
	Era         string  `yaml:"era"`
	Correlation float64 `yaml:"correlation"`
	Rows        int     `yaml:"rows"`
}

// EraScores maps eras to scores, ordered by era label.
type EraScores []EraScore

// Values returns the correlations in era order.
func (s EraScores) Values() []float64 {
	out := make([]float64, len(s))
	for i, e := range s {
		out[i] = e.Correlation
	}
	return out
}

// Map returns the scores keyed by era.
func (s EraScores) Map() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, e := range s {
		out[e.Era] = e.Correlation
	}
	return out
}

// Scorer computes the per-era rank correlation between a target column and
// a prediction column.
type Scorer struct {
	EraColumn        string
	TargetColumn     string
	PredictionColumn string
}

// NewScorer creates a scorer for the given columns.
func NewScorer(eraColumn, targetColumn, predictionColumn string) *Scorer {
	return &Scorer{
		EraColumn:        eraColumn,
		TargetColumn:     targetColumn,
		PredictionColumn: predictionColumn,
	}
}

// Score groups the rows of t by era. Within each era the predictions are
// ranked as percentiles (ties by first appearance) and correlated with the
// raw target.
//
// An era that has fewer than two rows or no variance scores NaN; the NaN is
// reported through errors.Warn and kept in the result. A missing column is
// a configuration error.
func (s *Scorer) Score(t *dataset.Table) (EraScores, error) {
	for _, name := range []string{s.EraColumn, s.TargetColumn, s.PredictionColumn} {
		if !t.HasColumn(name) {
			return nil, errors.NewValueError("Score", fmt.Sprintf("no column %q", name))
		}
	}
	groups, err := t.Groups(s.EraColumn)
	if err != nil {
		return nil, err
	}
	target, err := t.Float64s(s.TargetColumn)
	if err != nil {
		return nil, err
	}
	prediction, err := t.Float64s(s.PredictionColumn)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("scoring.scorer")
	scores := make(EraScores, 0, len(groups))
	for _, g := range groups {
		tg := make([]float64, len(g.Rows))
		pr := make([]float64, len(g.Rows))
		for k, r := range g.Rows {
			tg[k] = target[r]
			pr[k] = prediction[r]
		}
		corr, err := metrics.RankCorrelation(tg, pr)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(corr) {
			errors.Warn(errors.NewUndefinedMetricWarning("era_correlation",
				fmt.Sprintf("%s has %d rows or no variance", g.Label, len(g.Rows)), corr))
		}
		logger.Debug("Era scored",
			log.OperationKey, log.OperationScore,
			log.EraKey, g.Label,
			log.SamplesKey, len(g.Rows),
			log.CorrelationKey, corr,
		)
		scores = append(scores, EraScore{Era: g.Label, Correlation: corr, Rows: len(g.Rows)})
	}
	return scores, nil
}
