package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numerai/dataset"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/scoring"
)

// writeDataset writes a CSV in the tournament layout. The target is a noisy
// monotone function of feature_a; feature_b is noise.
func writeDataset(t *testing.T, path string, prefix string, eras int, perEra int, dataTypes []string, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString("id,era,data_type,feature_a,feature_b,target_kazutsugi\n")
	n := 0
	for e := 0; e < eras; e++ {
		dataType := dataTypes[e%len(dataTypes)]
		for i := 0; i < perEra; i++ {
			a := rng.Float64()
			noise := rng.Float64()
			target := 0.25 * float64(int(4*(0.8*a+0.2*rng.Float64())))
			fmt.Fprintf(&b, "%s%d,era%d,%s,%.4f,%.4f,%.2f\n", prefix, n, e+1, dataType, a, noise, target)
			n++
		}
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Data.Training = filepath.Join(dir, "numerai_training_data.csv")
	cfg.Data.Tournament = filepath.Join(dir, "numerai_tournament_data.csv")
	cfg.Data.Output = filepath.Join(dir, "kazutsugi_submission.csv")
	cfg.Model.NEstimators = 30
	cfg.Model.LearningRate = 0.1
	cfg.Model.MaxDepth = 3
	cfg.Model.ColsampleBytree = 1.0
	cfg.Model.NJobs = 2

	writeDataset(t, cfg.Data.Training, "n", 4, 60, []string{"train"}, 1)
	writeDataset(t, cfg.Data.Tournament, "t", 4, 40, []string{"validation", "test", "live"}, 2)
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "kazutsugi", cfg.Tournament)
	assert.Equal(t, "target_kazutsugi", cfg.TargetName())
	assert.Equal(t, "prediction_kazutsugi", cfg.PredictionName())
	assert.Equal(t, "kazutsugi_submission.csv", cfg.OutputPath())
	assert.Equal(t, 5, cfg.Model.MaxDepth)
	assert.Equal(t, 0.01, cfg.Model.LearningRate)
	assert.Equal(t, 1000, cfg.Model.NEstimators)
	assert.Equal(t, -1, cfg.Model.NJobs)
	assert.Equal(t, 0.1, cfg.Model.ColsampleBytree)
	assert.Equal(t, 0.0, cfg.Scoring.Benchmark)
	assert.Equal(t, 0.2, cfg.Scoring.Band)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tournament = ""
	err := cfg.Validate()
	require.Error(t, err)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	cfg = DefaultConfig()
	cfg.Scoring.Band = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Model.MaxDepth = 0
	assert.Error(t, cfg.Validate())
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	report, err := Run(context.Background(), cfg, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "On training the correlation has mean "))
	assert.Contains(t, lines[0], " and std ")
	assert.True(t, strings.HasPrefix(lines[1], "On training the average per-era payout is "))
	assert.True(t, strings.HasPrefix(lines[2], "On validation the correlation has mean "))
	assert.True(t, strings.HasPrefix(lines[3], "On validation the average per-era payout is "))

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Features)
	assert.Equal(t, 240, report.Training.Rows)
	assert.Len(t, report.Training.Eras, 4)
	assert.Greater(t, report.Training.Summary.CorrelationMean, 0.3, "model picks up the signal")
	assert.Equal(t, 80, report.Validation.Rows, "eras 1 and 4 are validation")
	assert.Len(t, report.Validation.Eras, 2)
	require.NotEmpty(t, report.TopFeatures)
	assert.Equal(t, "feature_a", report.TopFeatures[0].Name)

	submission, err := dataset.Load(cfg.Data.Output, dataset.WithFloatPrefixes("prediction"))
	require.NoError(t, err)
	tournament, err := dataset.Load(cfg.Data.Tournament)
	require.NoError(t, err)
	assert.Equal(t, tournament.IDs(), submission.IDs())
	assert.Equal(t, []string{"id", "prediction_kazutsugi"}, submission.Columns())
	assert.Equal(t, tournament.Len(), report.OutputRows)
}

// constantRegressor predicts the first feature unchanged.
type constantRegressor struct{ fitted bool }

func (c *constantRegressor) Fit(X, y mat.Matrix) error {
	c.fitted = true
	return nil
}

func (c *constantRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, X.At(i, 0))
	}
	return out, nil
}

func TestRunWithRegressor(t *testing.T) {
	cfg := testConfig(t)
	reg := &constantRegressor{}
	var out bytes.Buffer

	report, err := Run(context.Background(), cfg, &out, WithRegressor(reg))
	require.NoError(t, err)
	assert.True(t, reg.fitted)
	assert.Empty(t, report.TopFeatures)
	assert.Greater(t, report.Validation.Summary.CorrelationMean, 0.3)
}

func TestRunMissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Tournament = filepath.Join(t.TempDir(), "absent.csv")

	_, err := Run(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))
	assert.Contains(t, err.Error(), "load data")
	assert.NoFileExists(t, cfg.Data.Output)
}

func TestRunMalformedInput(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Data.Training, []byte("id,feature_a,target_kazutsugi\nx,bad,1\n"), 0o600))

	_, err := Run(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsParseError(err))
}

// dropColumns rewrites the CSV at path without the named columns.
func dropColumns(t *testing.T, path string, names ...string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	drop := make(map[int]bool)
	for j, name := range strings.Split(lines[0], ",") {
		for _, n := range names {
			if name == n {
				drop[j] = true
			}
		}
	}
	require.Len(t, drop, len(names))
	var b strings.Builder
	for _, line := range lines {
		var kept []string
		for j, cell := range strings.Split(line, ",") {
			if !drop[j] {
				kept = append(kept, cell)
			}
		}
		b.WriteString(strings.Join(kept, ",") + "\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
}

func TestRunMissingColumn(t *testing.T) {
	tests := []struct {
		name       string
		prepare    func(t *testing.T, cfg *Config)
		tournament bool
		column     string
	}{
		{
			name:    "training era",
			prepare: func(t *testing.T, cfg *Config) { dropColumns(t, cfg.Data.Training, "era") },
			column:  "era",
		},
		{
			name:    "target of another tournament",
			prepare: func(t *testing.T, cfg *Config) { cfg.Tournament = "nomad" },
			column:  "target_nomad",
		},
		{
			name:       "tournament data_type",
			prepare:    func(t *testing.T, cfg *Config) { dropColumns(t, cfg.Data.Tournament, "data_type") },
			tournament: true,
			column:     "data_type",
		},
		{
			name:       "tournament era",
			prepare:    func(t *testing.T, cfg *Config) { dropColumns(t, cfg.Data.Tournament, "era") },
			tournament: true,
			column:     "era",
		},
		{
			name:       "tournament feature",
			prepare:    func(t *testing.T, cfg *Config) { dropColumns(t, cfg.Data.Tournament, "feature_b") },
			tournament: true,
			column:     "feature_b",
		},
		{
			name: "no features",
			prepare: func(t *testing.T, cfg *Config) {
				dropColumns(t, cfg.Data.Training, "feature_a", "feature_b")
			},
			column: "feature*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.prepare(t, &cfg)
			reg := &constantRegressor{}
			var out bytes.Buffer

			_, err := Run(context.Background(), cfg, &out, WithRegressor(reg))
			require.Error(t, err)
			assert.True(t, errors.IsParseError(err), "got %v", err)
			assert.Contains(t, err.Error(), "load data")

			var pe *errors.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.column, pe.Column)
			assert.Equal(t, 1, pe.Line)
			assert.Equal(t, "missing column", pe.Reason)
			if tt.tournament {
				assert.Equal(t, cfg.Data.Tournament, pe.Path)
			} else {
				assert.Equal(t, cfg.Data.Training, pe.Path)
			}

			assert.False(t, reg.fitted, "reported before fitting")
			assert.Empty(t, out.String())
			assert.NoFileExists(t, cfg.Data.Output)
		})
	}
}

func TestFormatStat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.05231874129, "0.05231874129"},
		{-1, "-1"},
		{0, "0"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatStat(tt.in))
	}
}

func TestPrintSummaryNaN(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printSummary(&out, "validation", scoring.Summary{
		CorrelationMean: math.NaN(),
		CorrelationStd:  math.NaN(),
		PayoutMean:      math.NaN(),
	}))
	assert.Equal(t, "On validation the correlation has mean nan and std nan\n"+
		"On validation the average per-era payout is nan\n", out.String())
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
