package boost

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numerai/core/parallel"
	"github.com/YuminosukeSato/numerai/pkg/errors"
)

// Predictor evaluates a Booster on batches of rows.
type Predictor struct {
	booster *Booster
	workers int
}

// NewPredictor creates a predictor using nJobs goroutines (-1: all cores).
func NewPredictor(booster *Booster, nJobs int) *Predictor {
	return &Predictor{booster: booster, workers: parallel.Workers(nJobs)}
}

// Predict returns a rows × 1 matrix of predictions. The result does not
// depend on the number of workers.
func (p *Predictor) Predict(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != p.booster.NFeatures {
		return nil, errors.NewDimensionError("Predict", p.booster.NFeatures, cols, 1)
	}
	out := make([]float64, rows)
	if rows == 0 {
		return &mat.Dense{}, nil
	}

	dense, isDense := X.(*mat.Dense)
	parallel.ParallelizeN(rows, p.workers, func(start, end int) {
		buf := make([]float64, cols)
		for i := start; i < end; i++ {
			var row []float64
			if isDense {
				row = dense.RawRowView(i)
			} else {
				row = mat.Row(buf, i, X)
			}
			out[i] = p.booster.PredictRow(row)
		}
	})
	return mat.NewDense(rows, 1, out), nil
}
