package boost

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numerai/core/model"
	"github.com/YuminosukeSato/numerai/metrics"
	numeraiErrors "github.com/YuminosukeSato/numerai/pkg/errors"
)

// Regressor is a gradient-boosted tree regressor with a scikit-learn style
// API. It satisfies model.Regressor.
type Regressor struct {
	model.BaseEstimator
	Params

	// Callbacks run after every boosting round.
	Callbacks []Callback

	booster   *Booster
	predictor *Predictor
}

var (
	_ model.ScoringRegressor = (*Regressor)(nil)
	_ model.ParameterGetter  = (*Regressor)(nil)
	_ model.ParameterSetter  = (*Regressor)(nil)
)

// NewRegressor creates a regressor with DefaultParams.
func NewRegressor() *Regressor {
	return &Regressor{Params: DefaultParams()}
}

// NewRegressorWithParams creates a regressor with the given parameters.
func NewRegressorWithParams(p Params) *Regressor {
	return &Regressor{Params: p}
}

// WithNEstimators sets the number of boosting rounds.
func (r *Regressor) WithNEstimators(n int) *Regressor {
	r.NEstimators = n
	return r
}

// WithLearningRate sets the shrinkage applied to every tree.
func (r *Regressor) WithLearningRate(lr float64) *Regressor {
	r.LearningRate = lr
	return r
}

// WithMaxDepth sets the maximum tree depth.
func (r *Regressor) WithMaxDepth(d int) *Regressor {
	r.MaxDepth = d
	return r
}

// WithColsampleBytree sets the share of features drawn for each tree.
func (r *Regressor) WithColsampleBytree(f float64) *Regressor {
	r.ColsampleBytree = f
	return r
}

// WithNJobs sets the worker count, -1 for all cores.
func (r *Regressor) WithNJobs(n int) *Regressor {
	r.NJobs = n
	return r
}

// WithRandomState sets the seed of the column sampler.
func (r *Regressor) WithRandomState(seed int64) *Regressor {
	r.RandomState = seed
	return r
}

// WithCallbacks appends training callbacks.
func (r *Regressor) WithCallbacks(callbacks ...Callback) *Regressor {
	r.Callbacks = append(r.Callbacks, callbacks...)
	return r
}

// Fit trains the model. X is samples × features, y is samples × 1.
func (r *Regressor) Fit(X, y mat.Matrix) error {
	return r.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation between boosting rounds.
func (r *Regressor) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer numeraiErrors.Recover(&err, "boost.Regressor.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows != yRows {
		return numeraiErrors.NewDimensionError("Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return numeraiErrors.NewDimensionError("Fit", 1, yCols, 1)
	}

	booster, err := NewTrainer(r.Params).
		WithCallbacks(r.Callbacks...).
		Fit(ctx, X, mat.Col(nil, 0, y))
	if err != nil {
		return numeraiErrors.Wrap(err, "boost: training failed")
	}

	r.booster = booster
	r.predictor = NewPredictor(booster, r.NJobs)
	r.SetNFeatures(cols)
	r.SetFitted()
	return nil
}

// Predict returns a samples × 1 matrix of predictions.
func (r *Regressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, numeraiErrors.NewNotFittedError("boost.Regressor", "Predict")
	}
	_, cols := X.Dims()
	if cols != r.NFeatures() {
		return nil, numeraiErrors.NewDimensionError("Predict", r.NFeatures(), cols, 1)
	}
	return r.predictor.Predict(X)
}

// Score returns the coefficient of determination R^2 of the prediction.
func (r *Regressor) Score(X, y mat.Matrix) (float64, error) {
	if !r.IsFitted() {
		return 0, numeraiErrors.NewNotFittedError("boost.Regressor", "Score")
	}
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	yCol := mat.Col(nil, 0, y)
	pCol := mat.Col(nil, 0, pred)
	return metrics.R2Score(mat.NewVecDense(len(yCol), yCol), mat.NewVecDense(len(pCol), pCol))
}

// Booster returns the fitted ensemble, nil before Fit.
func (r *Regressor) Booster() *Booster {
	return r.booster
}

// FeatureImportance returns the normalised gain importance per feature.
func (r *Regressor) FeatureImportance() []float64 {
	if !r.IsFitted() {
		return nil
	}
	return r.booster.FeatureImportance()
}

// GetParams returns the parameters of the regressor
func (r *Regressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     r.NEstimators,
		"learning_rate":    r.LearningRate,
		"max_depth":        r.MaxDepth,
		"min_child_weight": r.MinChildWeight,
		"reg_lambda":       r.RegLambda,
		"gamma":            r.Gamma,
		"colsample_bytree": r.ColsampleBytree,
		"max_bin":          r.MaxBin,
		"n_jobs":           r.NJobs,
		"random_state":     r.RandomState,
	}
}

// SetParams sets the parameters of the regressor. Unknown keys and values
// of the wrong type are rejected and leave the regressor unchanged.
func (r *Regressor) SetParams(params map[string]interface{}) error {
	p := r.Params
	for key, value := range params {
		var ok bool
		switch key {
		case "n_estimators":
			p.NEstimators, ok = value.(int)
		case "learning_rate", "eta":
			p.LearningRate, ok = toFloat(value)
		case "max_depth":
			p.MaxDepth, ok = value.(int)
		case "min_child_weight":
			p.MinChildWeight, ok = toFloat(value)
		case "reg_lambda", "lambda":
			p.RegLambda, ok = toFloat(value)
		case "gamma":
			p.Gamma, ok = toFloat(value)
		case "colsample_bytree":
			p.ColsampleBytree, ok = toFloat(value)
		case "max_bin":
			p.MaxBin, ok = value.(int)
		case "n_jobs":
			p.NJobs, ok = value.(int)
		case "random_state":
			var seed int
			seed, ok = value.(int)
			p.RandomState = int64(seed)
		default:
			return numeraiErrors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return numeraiErrors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	r.Params = p
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
