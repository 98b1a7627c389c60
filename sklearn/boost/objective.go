package boost

import "gonum.org/v1/gonum/stat"

// Objective supplies the first and second order gradients of a loss.
type Objective interface {
	// Gradient returns d loss / d prediction.
	Gradient(prediction, target float64) float64
	// Hessian returns d² loss / d prediction².
	Hessian(prediction, target float64) float64
	// Loss returns the per-sample loss.
	Loss(prediction, target float64) float64
	// BaseScore returns the constant prediction the ensemble starts from.
	BaseScore(targets []float64) float64
	// Name returns the XGBoost name of the objective.
	Name() string
}

// SquaredError implements the L2 regression objective "reg:squarederror".
type SquaredError struct{}

func (SquaredError) Gradient(prediction, target float64) float64 { return prediction - target }

func (SquaredError) Hessian(_, _ float64) float64 { return 1.0 }

func (SquaredError) Loss(prediction, target float64) float64 {
	diff := prediction - target
	return 0.5 * diff * diff
}

// BaseScore is the target mean, the L2 optimum of a constant model.
func (SquaredError) BaseScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0
	}
	return stat.Mean(targets, nil)
}

func (SquaredError) Name() string { return "reg:squarederror" }
