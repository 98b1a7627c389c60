package pipeline

import (
	"github.com/YuminosukeSato/numerai/dataset"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/scoring"
	"github.com/YuminosukeSato/numerai/sklearn/boost"
)

// DataConfig locates the input and output files and names the columns the
// pipeline reads.
type DataConfig struct {
	Training       string `yaml:"training" mapstructure:"training"`
	Tournament     string `yaml:"tournament" mapstructure:"tournament"`
	Output         string `yaml:"output" mapstructure:"output"` // empty: <tournament>_submission.csv
	IDColumn       string `yaml:"id_column" mapstructure:"id_column"`
	EraColumn      string `yaml:"era_column" mapstructure:"era_column"`
	DataTypeColumn string `yaml:"data_type_column" mapstructure:"data_type_column"`
	ValidationType string `yaml:"validation_type" mapstructure:"validation_type"`
}

// Config is the complete pipeline configuration.
type Config struct {
	Tournament string         `yaml:"tournament" mapstructure:"tournament"`
	Data       DataConfig     `yaml:"data" mapstructure:"data"`
	Scoring    scoring.Config `yaml:"scoring" mapstructure:"scoring"`
	Model      boost.Params   `yaml:"model" mapstructure:"model"`
}

// DefaultConfig returns the standard submission settings: tournament
// "kazutsugi", the usual file names in the working directory and an
// XGBoost model with depth 5, learning rate 0.01, 1000 trees and 10% of the
// features per tree.
func DefaultConfig() Config {
	model := boost.DefaultParams()
	model.MaxDepth = 5
	model.LearningRate = 0.01
	model.NEstimators = 1000
	model.NJobs = -1
	model.ColsampleBytree = 0.1

	return Config{
		Tournament: "kazutsugi",
		Data: DataConfig{
			Training:       "numerai_training_data.csv",
			Tournament:     "numerai_tournament_data.csv",
			IDColumn:       dataset.DefaultIndex,
			EraColumn:      "era",
			DataTypeColumn: "data_type",
			ValidationType: "validation",
		},
		Scoring: scoring.DefaultConfig(),
		Model:   model,
	}
}

// TargetName returns the target column, "target_<tournament>".
func (c Config) TargetName() string { return "target_" + c.Tournament }

// PredictionName returns the prediction column, "prediction_<tournament>".
func (c Config) PredictionName() string { return "prediction_" + c.Tournament }

// OutputPath returns Data.Output, or "<tournament>_submission.csv" when it
// is empty.
func (c Config) OutputPath() string {
	if c.Data.Output != "" {
		return c.Data.Output
	}
	return c.Tournament + "_submission.csv"
}

// Validate reports the first invalid setting as a ValidationError.
func (c Config) Validate() error {
	required := []struct{ key, value string }{
		{"tournament", c.Tournament},
		{"data.training", c.Data.Training},
		{"data.tournament", c.Data.Tournament},
		{"data.id_column", c.Data.IDColumn},
		{"data.era_column", c.Data.EraColumn},
		{"data.data_type_column", c.Data.DataTypeColumn},
		{"data.validation_type", c.Data.ValidationType},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.NewValidationError(r.key, "must not be empty", r.value)
		}
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	return c.Model.Validate()
}
