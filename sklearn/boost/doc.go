// Package boost implements gradient-boosted regression trees with an
// XGBoost-style parameter set.
//
// Training is histogram based: every feature is bucketed once into at most
// MaxBin quantile bins, and each tree is grown depth-wise to MaxDepth by
// scanning per-node gradient histograms. Missing values (NaN) are routed
// to the side that gains more at each split. Each tree sees a random
// ColsampleBytree share of the features.
//
// Basic usage:
//
//	reg := boost.NewRegressor().
//	    WithMaxDepth(5).
//	    WithLearningRate(0.01).
//	    WithNEstimators(1000).
//	    WithColsampleBytree(0.1)
//	if err := reg.Fit(X, y); err != nil {
//	    return err
//	}
//	pred, err := reg.Predict(X)
//
// NJobs sets the number of goroutines used for histogram construction and
// prediction. -1 uses every core.
package boost
