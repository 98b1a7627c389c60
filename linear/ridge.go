// Package linear provides a ridge regression baseline for the tournament
// pipeline.
package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/numerai/core/model"
	"github.com/YuminosukeSato/numerai/core/parallel"
	"github.com/YuminosukeSato/numerai/metrics"
	"github.com/YuminosukeSato/numerai/pkg/errors"
)

// この行数以下では逐次処理
const parallelThreshold = 1000

// Ridge は L2 正則化付きの線形回帰モデル。
// 欠損値 (NaN) は学習時の列平均で補完する。
type Ridge struct {
	model.BaseEstimator

	Alpha        float64 // L2 正則化の強さ
	FitIntercept bool
	NJobs        int

	Coef      *mat.VecDense // 係数
	Intercept float64       // 切片

	fill []float64 // 列ごとの補完値
}

var (
	_ model.ScoringRegressor = (*Ridge)(nil)
	_ model.ParameterGetter  = (*Ridge)(nil)
	_ model.ParameterSetter  = (*Ridge)(nil)
)

// NewRidge は新しい Ridge モデルを作成する。デフォルトは Alpha=1、切片あり。
func NewRidge(opts ...Option) *Ridge {
	r := &Ridge{Alpha: 1, FitIntercept: true, NJobs: -1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit はモデルを訓練データで学習させる。
// (XcᵀXc + αI) w = Xcᵀyc を解く。Xc, yc は中心化したデータ。
func (r *Ridge) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "linear.Ridge.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("linear.Ridge.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != rows {
		return errors.NewDimensionError("Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("Fit", 1, yCols, 1)
	}
	if r.Alpha < 0 || math.IsNaN(r.Alpha) {
		return errors.NewValidationError("alpha", "must be non-negative", r.Alpha)
	}

	target := mat.Col(nil, 0, y)
	for i, v := range target {
		if math.IsNaN(v) {
			return errors.NewValueError("linear.Ridge.Fit", fmt.Sprintf("target contains NaN at row %d", i))
		}
	}

	workers := parallel.Workers(r.NJobs)
	fill := columnMeans(X, workers)

	// 補完済みの X から中心を引く。切片なしなら中心は 0。
	center := make([]float64, cols)
	yCenter := 0.0
	if r.FitIntercept {
		copy(center, fill)
		yCenter = stat.Mean(target, nil)
	}

	Xc := mat.NewDense(rows, cols, nil)
	parallel.ParallelizeWithThreshold(rows, parallelThreshold, workers, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				v := X.At(i, j)
				if math.IsNaN(v) {
					v = fill[j]
				}
				Xc.Set(i, j, v-center[j])
			}
		}
	})
	yc := mat.NewVecDense(rows, nil)
	for i, v := range target {
		yc.SetVec(i, v-yCenter)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, Xc.T())
	for j := 0; j < cols; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(Xc.T(), yc)

	coef := mat.NewVecDense(cols, nil)
	var chol mat.Cholesky
	if chol.Factorize(&gram) {
		if err := chol.SolveVecTo(coef, &rhs); err != nil {
			return errors.NewModelError("linear.Ridge.Fit", "singular matrix", err)
		}
	} else if err := coef.SolveVec(&gram, &rhs); err != nil {
		// Alpha=0 で列が線形従属な場合
		return errors.NewModelError("linear.Ridge.Fit", "singular matrix", err)
	}
	if err := errors.CheckNumericalStability("linear.Ridge.Fit", coef.RawVector().Data, 0); err != nil {
		return err
	}

	r.Coef = coef
	r.Intercept = yCenter - mat.Dot(mat.NewVecDense(cols, center), coef)
	r.fill = fill
	r.SetNFeatures(cols)
	r.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う。戻り値は (サンプル数 × 1)。
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("linear.Ridge", "Predict")
	}
	rows, cols := X.Dims()
	if cols != r.NFeatures() {
		return nil, errors.NewDimensionError("Predict", r.NFeatures(), cols, 1)
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, parallelThreshold, parallel.Workers(r.NJobs), func(start, end int) {
		for i := start; i < end; i++ {
			s := r.Intercept
			for j := 0; j < cols; j++ {
				v := X.At(i, j)
				if math.IsNaN(v) {
					v = r.fill[j]
				}
				s += r.Coef.AtVec(j) * v
			}
			out[i] = s
		}
	})
	return mat.NewDense(rows, 1, out), nil
}

// Score は決定係数 R^2 を返す
func (r *Ridge) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	yCol := mat.Col(nil, 0, y)
	pCol := mat.Col(nil, 0, pred)
	return metrics.R2Score(mat.NewVecDense(len(yCol), yCol), mat.NewVecDense(len(pCol), pCol))
}

// FeatureImportance は係数の絶対値を合計 1 に正規化して返す。
// 特徴量のスケールが揃っている場合にのみ意味を持つ。
func (r *Ridge) FeatureImportance() []float64 {
	if !r.IsFitted() {
		return nil
	}
	imp := make([]float64, r.Coef.Len())
	total := 0.0
	for j := range imp {
		imp[j] = math.Abs(r.Coef.AtVec(j))
		total += imp[j]
	}
	if total > 0 {
		for j := range imp {
			imp[j] /= total
		}
	}
	return imp
}

// GetParams returns the parameters of the model
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         r.Alpha,
		"fit_intercept": r.FitIntercept,
		"n_jobs":        r.NJobs,
	}
}

// SetParams sets the parameters of the model. Unknown keys and values of the
// wrong type are rejected and leave the model unchanged.
func (r *Ridge) SetParams(params map[string]interface{}) error {
	next := *r
	for key, value := range params {
		var ok bool
		switch key {
		case "alpha":
			switch v := value.(type) {
			case float64:
				next.Alpha, ok = v, true
			case int:
				next.Alpha, ok = float64(v), true
			}
		case "fit_intercept":
			next.FitIntercept, ok = value.(bool)
		case "n_jobs":
			next.NJobs, ok = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, "wrong type", value)
		}
	}
	*r = next
	return nil
}

// columnMeans は NaN を除いた列平均を返す。全て NaN の列は 0。
func columnMeans(X mat.Matrix, workers int) []float64 {
	rows, cols := X.Dims()
	means := make([]float64, cols)
	parallel.ParallelizeN(cols, workers, func(start, end int) {
		for j := start; j < end; j++ {
			sum, n := 0.0, 0
			for i := 0; i < rows; i++ {
				if v := X.At(i, j); !math.IsNaN(v) {
					sum += v
					n++
				}
			}
			if n > 0 {
				means[j] = sum / float64(n)
			}
		}
	})
	return means
}
