package scoring

import (
	"math"

	"github.com/YuminosukeSato/numerai/pkg/errors"
)

// Config holds the payout parameters.
type Config struct {
	// Benchmark is the correlation that earns a zero payout.
	Benchmark float64 `yaml:"benchmark" mapstructure:"benchmark"`
	// Band is the correlation distance from Benchmark that earns the
	// maximum payout of ±1.
	Band float64 `yaml:"band" mapstructure:"band"`
}

// DefaultConfig returns Benchmark 0 and Band 0.2.
func DefaultConfig() Config {
	return Config{Benchmark: 0, Band: 0.2}
}

// Validate checks that Band is positive and both values are finite.
func (c Config) Validate() error {
	if !(c.Band > 0) || math.IsInf(c.Band, 1) {
		return errors.NewValidationError("scoring.band", "must be positive and finite", c.Band)
	}
	if math.IsNaN(c.Benchmark) || math.IsInf(c.Benchmark, 0) {
		return errors.NewValidationError("scoring.benchmark", "must be finite", c.Benchmark)
	}
	return nil
}

// Payout maps a correlation score to clip((score-Benchmark)/Band, -1, 1).
// NaN scores return NaN.
func Payout(score float64, cfg Config) float64 {
	return errors.ClipValue((score-cfg.Benchmark)/cfg.Band, -1, 1)
}

// PayoutAll applies Payout elementwise.
func PayoutAll(scores []float64, cfg Config) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = Payout(s, cfg)
	}
	return out
}
