package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/numerai/pipeline"
	"github.com/YuminosukeSato/numerai/pkg/errors"
)

const (
	configFileName = "numerai"
	envPrefix      = "NUMERAI"
)

// flag name -> config key
var flagKeys = map[string]string{
	"tournament":      "tournament",
	"training-data":   "data.training",
	"tournament-data": "data.tournament",
	"output":          "data.output",
}

// loadConfig layers, from lowest to highest precedence: the defaults of
// pipeline.DefaultConfig, the YAML config file, NUMERAI_* environment
// variables and command line flags.
//
// Without an explicit path, numerai.yaml in the working directory is read
// when present.
func loadConfig(path string, flags *pflag.FlagSet) (pipeline.Config, error) {
	v := viper.New()
	setDefaults(v, pipeline.DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return pipeline.Config{}, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return pipeline.Config{}, errors.NewIOError("read config", path, err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return pipeline.Config{}, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg pipeline.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return pipeline.Config{}, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg pipeline.Config) {
	v.SetDefault("tournament", cfg.Tournament)

	v.SetDefault("data.training", cfg.Data.Training)
	v.SetDefault("data.tournament", cfg.Data.Tournament)
	v.SetDefault("data.output", cfg.Data.Output)
	v.SetDefault("data.id_column", cfg.Data.IDColumn)
	v.SetDefault("data.era_column", cfg.Data.EraColumn)
	v.SetDefault("data.data_type_column", cfg.Data.DataTypeColumn)
	v.SetDefault("data.validation_type", cfg.Data.ValidationType)

	v.SetDefault("scoring.benchmark", cfg.Scoring.Benchmark)
	v.SetDefault("scoring.band", cfg.Scoring.Band)

	v.SetDefault("model.n_estimators", cfg.Model.NEstimators)
	v.SetDefault("model.learning_rate", cfg.Model.LearningRate)
	v.SetDefault("model.max_depth", cfg.Model.MaxDepth)
	v.SetDefault("model.min_child_weight", cfg.Model.MinChildWeight)
	v.SetDefault("model.reg_lambda", cfg.Model.RegLambda)
	v.SetDefault("model.gamma", cfg.Model.Gamma)
	v.SetDefault("model.colsample_bytree", cfg.Model.ColsampleBytree)
	v.SetDefault("model.max_bin", cfg.Model.MaxBin)
	v.SetDefault("model.n_jobs", cfg.Model.NJobs)
	v.SetDefault("model.random_state", cfg.Model.RandomState)
}
