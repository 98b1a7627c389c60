package pipeline

import (
	"time"

	"github.com/YuminosukeSato/numerai/scoring"
)

// PartitionReport holds the evaluation of one partition.
type PartitionReport struct {
	Rows    int               `yaml:"rows"`
	Eras    scoring.EraScores `yaml:"eras"`
	Summary scoring.Summary   `yaml:"summary"`
}

// FeatureWeight is the gain importance of one feature.
type FeatureWeight struct {
	Name       string  `yaml:"name"`
	Importance float64 `yaml:"importance"`
}

// Report describes a completed run.
type Report struct {
	RunID            string          `yaml:"run_id"`
	StartedAt        time.Time       `yaml:"started_at"`
	Duration         time.Duration   `yaml:"duration"`
	TrainingDuration time.Duration   `yaml:"training_duration"`
	Config           Config          `yaml:"config"`
	Features         int             `yaml:"features"`
	Training         PartitionReport `yaml:"training"`
	Validation       PartitionReport `yaml:"validation"`
	TopFeatures      []FeatureWeight `yaml:"top_features,omitempty"`
	OutputPath       string          `yaml:"output_path"`
	OutputRows       int             `yaml:"output_rows"`
}
