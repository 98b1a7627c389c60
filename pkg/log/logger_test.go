package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	numeraiErrors "github.com/YuminosukeSato/numerai/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("debug message", "key1", "value1")
	testLogger.Info("info message", OperationKey, OperationFit, SamplesKey, 42)
	testLogger.Warn("warning message")
	testLogger.Error("error message", fmt.Errorf("test error"), PhaseKey, PhaseTraining)

	require.NotEmpty(t, buffer.String())
	assert.False(t, testLogger.ContainsMessage("debug message"), "debug is below the threshold")
	assert.True(t, testLogger.ContainsMessage("info message"))
	assert.True(t, testLogger.ContainsMessage("warning message"))
	assert.True(t, testLogger.ContainsField(OperationKey, OperationFit))
	// JSON unmarshaling converts numbers to float64
	assert.True(t, testLogger.ContainsField(SamplesKey, 42.0))
	assert.True(t, testLogger.ContainsField(ErrorKey, "test error"))
}

func TestTestLoggerWith(t *testing.T) {
	base, _ := NewTestLogger(LevelDebug)
	scoped := base.With(ModelNameKey, "boost.Regressor", RunIDKey, "run-1")

	scoped.Info("Training started")

	entries, err := base.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boost.Regressor", entries[0][ModelNameKey])
	assert.Equal(t, "run-1", entries[0][RunIDKey])
}

func TestTestLoggerNaNField(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	logger.Info("era scored", CorrelationKey, math.NaN())

	assert.True(t, logger.ContainsField(CorrelationKey, "NaN"))
}

func TestTestLoggerProvider(t *testing.T) {
	provider, captured := NewTestLoggerProvider(LevelDebug)
	restore := SetProvider(provider)
	defer restore()

	GetLoggerWithName("dataset.loader").Info("Dataset loaded")

	assert.True(t, captured.ContainsField(ComponentKey, "dataset.loader"))

	SetLevel(LevelError)
	GetLogger().Warn("dropped")
	assert.False(t, captured.ContainsMessage("dropped"))
}

func TestZerologLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	logger.With(ComponentKey, "scoring.scorer").Info("era scored",
		EraKey, "era1",
		CorrelationKey, 0.25,
		SamplesKey, 10,
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "era scored", entry["message"])
	assert.Equal(t, "scoring.scorer", entry[ComponentKey])
	assert.Equal(t, "era1", entry[EraKey])
	assert.Equal(t, 0.25, entry[CorrelationKey])
	assert.Equal(t, 10.0, entry[SamplesKey])
}

func TestZerologLoggerErrorStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	err := numeraiErrors.NewIOError("open", "missing.csv", fmt.Errorf("no such file"))
	logger.Error("Pipeline failed", err, OperationKey, OperationLoad)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry[zerolog.ErrorFieldName], "missing.csv")
	assert.NotEmpty(t, entry[StacktraceKey])
	assert.Equal(t, OperationLoad, entry[OperationKey])
}

func TestZerologLoggerEnabled(t *testing.T) {
	logger := NewZerologLogger(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	ctx := context.Background()

	assert.False(t, logger.Enabled(ctx, LevelDebug))
	assert.False(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelWarn))
	assert.True(t, logger.Enabled(ctx, LevelError))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstallWarningHook(t *testing.T) {
	provider, captured := NewTestLoggerProvider(LevelDebug)
	restore := SetProvider(provider)
	defer restore()

	InstallWarningHook()
	defer numeraiErrors.SetZerologWarnFunc(nil)

	numeraiErrors.Warn(numeraiErrors.NewUndefinedMetricWarning("era_correlation", "era7 has 1 row", math.NaN()))

	assert.True(t, captured.ContainsField(ComponentKey, "warnings"))
	assert.True(t, captured.ContainsMessage("era7 has 1 row"))
}

func TestConcurrentLogging(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				logger.Debug("histogram built", "worker", id, IterationKey, i)
			}
		}(w)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 200)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.True(t, strings.HasPrefix(Level(99).String(), "UNKNOWN"))
}
