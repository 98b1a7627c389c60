package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。
	// X は (サンプル数 × 特徴量数)、y は (サンプル数 × 1)。
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う。戻り値は (サンプル数 × 1)。
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor はパイプラインが依存する回帰モデルの最小インターフェース。
// 学習済みモデルの Predict は決定的でなければならない。
type Regressor interface {
	Fitter
	Predictor
}
