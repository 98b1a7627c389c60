package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numerai/report"
)

func writeData(t *testing.T, path, prefix string, dataTypes []string, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString("id,era,data_type,feature_a,feature_b,target_kazutsugi\n")
	n := 0
	for e := 0; e < 6; e++ {
		for i := 0; i < 40; i++ {
			a := rng.Float64()
			target := 0.25 * float64(int(4*(0.8*a+0.2*rng.Float64())))
			fmt.Fprintf(&b, "%s%d,era%d,%s,%.4f,%.4f,%.2f\n",
				prefix, n, e+1, dataTypes[e%len(dataTypes)], a, rng.Float64(), target)
			n++
		}
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "numerai dev\n", stdout.String())
}

func TestRootCommandRun(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeData(t, "numerai_training_data.csv", "tr", []string{"train"}, 1)
	writeData(t, "numerai_tournament_data.csv", "tn", []string{"validation", "live"}, 2)
	writeConfig(t, dir, "model:\n  n_estimators: 20\n  learning_rate: 0.3\n  colsample_bytree: 1\n")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{
		"--log-level", "warn",
		"--report", "report.yaml",
		"--plot", "eras.png",
		"--metrics-file", "numerai.prom",
	})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "On training the correlation has mean "))
	assert.True(t, strings.HasPrefix(lines[1], "On training the average per-era payout is "))
	assert.True(t, strings.HasPrefix(lines[2], "On validation the correlation has mean "))
	assert.True(t, strings.HasPrefix(lines[3], "On validation the average per-era payout is "))

	for _, name := range []string{"kazutsugi_submission.csv", "report.yaml", "eras.png", "numerai.prom"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	r, err := report.ReadYAML("report.yaml")
	require.NoError(t, err)
	assert.Equal(t, 240, r.Training.Rows)
	assert.Equal(t, 240, r.OutputRows)
	assert.Equal(t, 20, r.Config.Model.NEstimators)
}

func TestRootCommandLinearModel(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeData(t, "numerai_training_data.csv", "tr", []string{"train"}, 3)
	writeData(t, "numerai_tournament_data.csv", "tn", []string{"validation", "live"}, 4)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--model", "linear", "--alpha", "0.5", "--tournament", "kazutsugi", "--output", "linear.csv"})
	require.NoError(t, cmd.Execute())

	assert.Len(t, strings.Split(strings.TrimSpace(stdout.String()), "\n"), 4)
	_, err := os.Stat(filepath.Join(dir, "linear.csv"))
	assert.NoError(t, err)
}

func TestRootCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing data", args: nil},
		{name: "bad log level", args: []string{"--log-level", "loud"}},
		{name: "unexpected argument", args: []string{"extra"}},
		{name: "unknown model", args: []string{"--model", "forest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			var stdout, stderr bytes.Buffer
			cmd := newRootCmd(&stdout, &stderr)
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.Execute())
			assert.Empty(t, stdout.String())
		})
	}
}
