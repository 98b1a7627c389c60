// Package numerai trains a tournament model, scores it era by era and
// writes a submission file.
//
// The run is a linear batch pipeline:
//
//  1. dataset.Load reads the training and tournament CSV files into
//     Arrow-backed tables. Columns starting with "feature" or "target" are
//     narrowed to float16. A missing id, era, data_type, target or feature
//     column is a ParseError.
//  2. dataset.FeatureNames selects the feature columns.
//  3. A regressor (sklearn/boost.Regressor by default, linear.Ridge as a
//     baseline) is fitted on the training rows.
//  4. scoring.Scorer computes, for every era, the Pearson correlation
//     between the target and the percentile rank of the predictions.
//     scoring.Payout maps each correlation to clip((s-benchmark)/band, -1, 1).
//  5. dataset.WriteColumn exports id,prediction_<tournament> for every
//     tournament row.
//
// pipeline.Run ties the steps together and prints the four summary lines:
//
//	On training the correlation has mean 0.05231874129 and std 0.03110268455
//	On training the average per-era payout is 0.26159370645
//	On validation the correlation has mean 0.02193305517 and std 0.02870411926
//	On validation the average per-era payout is 0.10966527585
//
// # Command line
//
// cmd/numerai runs the pipeline with the default configuration when called
// without flags:
//
//	numerai
//	numerai --config numerai.yaml --report run.yaml --plot eras.png
//	numerai --model linear --alpha 10
//
// Settings come from flags, NUMERAI_* environment variables, a YAML config
// file and pipeline.DefaultConfig, in that order of precedence.
//
// # Errors and logging
//
// Errors are built with pkg/errors on top of github.com/cockroachdb/errors
// and carry a stack trace. IOError and ParseError classify input failures.
// pkg/log provides a structured Logger backed by github.com/rs/zerolog;
// logs go to stderr, the summary lines go to stdout.
package numerai
