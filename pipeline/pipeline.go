// Package pipeline runs the end-to-end submission flow: load the training
// and tournament files, fit the regressor on the training features, score
// both partitions era by era and export the tournament predictions.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numerai/core/model"
	"github.com/YuminosukeSato/numerai/dataset"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/pkg/log"
	"github.com/YuminosukeSato/numerai/scoring"
	"github.com/YuminosukeSato/numerai/sklearn/boost"
)

// number of features listed in Report.TopFeatures
const topFeatures = 10

// contextFitter is implemented by regressors that can stop between rounds.
type contextFitter interface {
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

// featureImportancer is implemented by regressors that expose importances.
type featureImportancer interface {
	FeatureImportance() []float64
}

type runOptions struct {
	regressor model.Regressor
}

// Option customises Run.
type Option func(*runOptions)

// WithRegressor replaces the boost.Regressor built from Config.Model.
func WithRegressor(r model.Regressor) Option {
	return func(o *runOptions) { o.regressor = r }
}

// Run executes the pipeline and writes the four summary lines to out.
// Any failure aborts the run; the error names the failing step.
func Run(ctx context.Context, cfg Config, out io.Writer, opts ...Option) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.regressor == nil {
		reg := boost.NewRegressorWithParams(cfg.Model)
		reg.Callbacks = append(reg.Callbacks, boost.LogEvaluation(log.GetLoggerWithName("boost.trainer"), 100))
		o.regressor = reg
	}

	report := &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		Config:     cfg,
		OutputPath: cfg.OutputPath(),
	}
	logger := log.GetLoggerWithName("pipeline").With(log.RunIDKey, report.RunID)
	logger.Info("Pipeline started", "tournament", cfg.Tournament)

	training, tournament, err := loadTables(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "load data")
	}
	defer training.Release()
	defer tournament.Release()

	features := dataset.FeatureNames(training)
	if err := checkColumns(cfg, training, tournament, features); err != nil {
		return nil, errors.Wrap(err, "load data")
	}
	report.Features = len(features)
	logger.Info("Features selected", log.FeaturesKey, len(features))

	fitStart := time.Now()
	if err := fit(ctx, o.regressor, training, features, cfg.TargetName()); err != nil {
		return nil, errors.Wrap(err, "fit model")
	}
	report.TrainingDuration = time.Since(fitStart)
	if imp, ok := o.regressor.(featureImportancer); ok {
		report.TopFeatures = rankFeatures(features, imp.FeatureImportance(), topFeatures)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "predict")
	}
	for _, t := range []*dataset.Table{training, tournament} {
		if err := predict(o.regressor, t, features, cfg.PredictionName()); err != nil {
			return nil, errors.Wrap(err, "predict")
		}
	}

	scorer := scoring.NewScorer(cfg.Data.EraColumn, cfg.TargetName(), cfg.PredictionName())

	report.Training, err = evaluate(scorer, training, cfg.Scoring)
	if err != nil {
		return nil, errors.Wrap(err, "score training")
	}
	if err := printSummary(out, log.PhaseTraining, report.Training.Summary); err != nil {
		return nil, errors.NewIOError("write", "stdout", err)
	}

	validation, err := tournament.Filter(cfg.Data.DataTypeColumn, cfg.Data.ValidationType)
	if err != nil {
		return nil, errors.Wrap(err, "select validation rows")
	}
	defer validation.Release()
	report.Validation, err = evaluate(scorer, validation, cfg.Scoring)
	if err != nil {
		return nil, errors.Wrap(err, "score validation")
	}
	if err := printSummary(out, log.PhaseValidation, report.Validation.Summary); err != nil {
		return nil, errors.NewIOError("write", "stdout", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "export")
	}
	if err := dataset.WriteColumn(report.OutputPath, tournament, cfg.PredictionName()); err != nil {
		return nil, errors.Wrap(err, "export")
	}
	report.OutputRows = tournament.Len()
	report.Duration = time.Since(report.StartedAt)

	logger.Info("Pipeline completed",
		log.PathKey, report.OutputPath,
		log.SamplesKey, report.OutputRows,
		log.DurationMsKey, report.Duration.Milliseconds(),
	)
	return report, nil
}

// loadTables reads both files concurrently.
func loadTables(ctx context.Context, cfg Config) (training, tournament *dataset.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		training, err = dataset.LoadContext(gctx, cfg.Data.Training, dataset.WithIndex(cfg.Data.IDColumn))
		return err
	})
	g.Go(func() error {
		var err error
		tournament, err = dataset.LoadContext(gctx, cfg.Data.Tournament, dataset.WithIndex(cfg.Data.IDColumn))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return training, tournament, nil
}

// checkColumns reports the first expected column absent from the loaded
// files as a ParseError against the header line.
func checkColumns(cfg Config, training, tournament *dataset.Table, features []string) error {
	required := []string{cfg.Data.IDColumn, cfg.Data.EraColumn, cfg.TargetName()}
	for _, col := range required {
		if !training.HasColumn(col) {
			return errors.NewParseError(cfg.Data.Training, 1, col, "missing column", nil)
		}
	}
	if len(features) == 0 {
		return errors.NewParseError(cfg.Data.Training, 1, dataset.FeaturePrefix+"*", "missing column", nil)
	}
	required = append(required, cfg.Data.DataTypeColumn)
	for _, col := range append(required, features...) {
		if !tournament.HasColumn(col) {
			return errors.NewParseError(cfg.Data.Tournament, 1, col, "missing column", nil)
		}
	}
	return nil
}

func fit(ctx context.Context, reg model.Regressor, t *dataset.Table, features []string, target string) error {
	X, err := t.Matrix(features)
	if err != nil {
		return err
	}
	y, err := t.Matrix([]string{target})
	if err != nil {
		return err
	}
	if cf, ok := reg.(contextFitter); ok {
		return cf.FitContext(ctx, X, y)
	}
	return reg.Fit(X, y)
}

func predict(reg model.Regressor, t *dataset.Table, features []string, column string) error {
	if t.Len() == 0 {
		return t.SetFloat64(column, []float64{})
	}
	X, err := t.Matrix(features)
	if err != nil {
		return err
	}
	pred, err := reg.Predict(X)
	if err != nil {
		return err
	}
	if rows, _ := pred.Dims(); rows != t.Len() {
		return errors.NewDimensionError("Predict", t.Len(), rows, 0)
	}
	return t.SetFloat64(column, mat.Col(nil, 0, pred))
}

func evaluate(scorer *scoring.Scorer, t *dataset.Table, cfg scoring.Config) (PartitionReport, error) {
	eras, err := scorer.Score(t)
	if err != nil {
		return PartitionReport{}, err
	}
	return PartitionReport{
		Rows:    t.Len(),
		Eras:    eras,
		Summary: scoring.Summarize(eras, cfg),
	}, nil
}

func printSummary(out io.Writer, phase string, s scoring.Summary) error {
	if _, err := fmt.Fprintf(out, "On %s the correlation has mean %s and std %s\n",
		phase, formatStat(s.CorrelationMean), formatStat(s.CorrelationStd)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "On %s the average per-era payout is %s\n", phase, formatStat(s.PayoutMean))
	return err
}

// formatStat prints v in the shortest round-trip form, with NaN and the
// infinities spelled nan, inf and -inf.
func formatStat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func rankFeatures(names []string, importance []float64, n int) []FeatureWeight {
	if len(importance) != len(names) {
		return nil
	}
	weights := make([]FeatureWeight, len(names))
	for i, name := range names {
		weights[i] = FeatureWeight{Name: name, Importance: importance[i]}
	}
	sort.SliceStable(weights, func(a, b int) bool { return weights[a].Importance > weights[b].Importance })
	if len(weights) > n {
		weights = weights[:n]
	}
	return weights
}
