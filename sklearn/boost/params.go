package boost

import (
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/numerai/pkg/errors"
)

// Params holds the booster hyperparameters. Names follow XGBoost.
type Params struct {
	NEstimators     int     `yaml:"n_estimators" mapstructure:"n_estimators"`
	LearningRate    float64 `yaml:"learning_rate" mapstructure:"learning_rate"`
	MaxDepth        int     `yaml:"max_depth" mapstructure:"max_depth"`
	MinChildWeight  float64 `yaml:"min_child_weight" mapstructure:"min_child_weight"`
	RegLambda       float64 `yaml:"reg_lambda" mapstructure:"reg_lambda"`
	Gamma           float64 `yaml:"gamma" mapstructure:"gamma"` // minimum loss reduction to split
	ColsampleBytree float64 `yaml:"colsample_bytree" mapstructure:"colsample_bytree"`
	MaxBin          int     `yaml:"max_bin" mapstructure:"max_bin"`
	NJobs           int     `yaml:"n_jobs" mapstructure:"n_jobs"`
	RandomState     int64   `yaml:"random_state" mapstructure:"random_state"`
}

// DefaultParams returns the XGBoost defaults.
func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		LearningRate:    0.3,
		MaxDepth:        6,
		MinChildWeight:  1.0,
		RegLambda:       1.0,
		Gamma:           0.0,
		ColsampleBytree: 1.0,
		MaxBin:          256,
		NJobs:           -1,
		RandomState:     0,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.NEstimators < 1:
		return errors.NewValidationError("n_estimators", "must be at least 1", p.NEstimators)
	case p.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be positive", p.LearningRate)
	case p.MaxDepth < 1:
		return errors.NewValidationError("max_depth", "must be at least 1", p.MaxDepth)
	case p.MinChildWeight < 0:
		return errors.NewValidationError("min_child_weight", "must not be negative", p.MinChildWeight)
	case p.RegLambda < 0:
		return errors.NewValidationError("reg_lambda", "must not be negative", p.RegLambda)
	case p.Gamma < 0:
		return errors.NewValidationError("gamma", "must not be negative", p.Gamma)
	case p.ColsampleBytree <= 0 || p.ColsampleBytree > 1:
		return errors.NewValidationError("colsample_bytree", "must be in (0, 1]", p.ColsampleBytree)
	case p.MaxBin < 2 || p.MaxBin > 65535:
		return errors.NewValidationError("max_bin", "must be in [2, 65535]", p.MaxBin)
	}
	return nil
}

// featureSampler draws the per-tree column subset.
type featureSampler struct {
	fraction float64
	rng      *rand.Rand
	perm     []int
}

func newFeatureSampler(nFeatures int, fraction float64, seed int64) *featureSampler {
	perm := make([]int, nFeatures)
	for i := range perm {
		perm[i] = i
	}
	return &featureSampler{
		fraction: fraction,
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
		perm:     perm,
	}
}

// sample returns max(1, floor(fraction*n)) distinct feature indices in
// ascending order.
func (s *featureSampler) sample() []int {
	n := len(s.perm)
	k := int(s.fraction * float64(n))
	if k < 1 {
		k = 1
	}
	if k >= n {
		return append([]int(nil), s.perm...)
	}

	// partial Fisher-Yates shuffle
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(n-i)
		s.perm[i], s.perm[j] = s.perm[j], s.perm[i]
	}
	selected := append([]int(nil), s.perm[:k]...)
	sort.Ints(selected)
	return selected
}
