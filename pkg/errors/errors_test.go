package errors

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "numerai: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "numerai: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 3, 1)

	want := "numerai: Predict: dimension mismatch on axis 1 (features). Expected 10, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Regressor", "Predict")

	want := "numerai: Regressor: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var nfErr *NotFittedError
	if !As(err, &nfErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestIOErrorKind(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here.csv")
	err := NewIOError("open", "/definitely/not/here.csv", statErr)

	if !IsIOError(err) {
		t.Fatal("expected IsIOError to be true")
	}
	if IsParseError(err) {
		t.Error("IOError must not be reported as ParseError")
	}
	// 元のfsエラーまで辿れること
	if !Is(err, fs.ErrNotExist) {
		t.Error("expected the chain to contain fs.ErrNotExist")
	}
	if !strings.Contains(err.Error(), "numerai: open /definitely/not/here.csv") {
		t.Errorf("unexpected message: %s", err.Error())
	}

	wrapped := Wrap(err, "load training data")
	if !IsIOError(wrapped) {
		t.Error("kind must survive wrapping")
	}
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		line    int
		column  string
		cause   error
		wantMsg string
	}{
		{
			name:    "line and column",
			line:    4,
			column:  "feature_1",
			cause:   fmt.Errorf("invalid syntax"),
			wantMsg: `numerai: parse train.csv:4 column "feature_1": not a number: invalid syntax`,
		},
		{
			name:    "no position",
			wantMsg: "numerai: parse train.csv: not a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewParseError("train.csv", tt.line, tt.column, "not a number", tt.cause)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}
			if !IsParseError(err) {
				t.Error("expected IsParseError to be true")
			}
			if IsIOError(err) {
				t.Error("ParseError must not be reported as IOError")
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("band", "must be positive", 0.0)

	want := "numerai: validation failed for parameter 'band': must be positive (got: 0)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestUndefinedMetricWarning(t *testing.T) {
	w := NewUndefinedMetricWarning("era_correlation", "era1 has 1 row", 0)

	want := "'era_correlation' is ill-defined and being set to 0.000000 due to era1 has 1 row."
	if w.Error() != want {
		t.Errorf("Error() = %v, want %v", w.Error(), want)
	}
}

func TestWarnUsesZerologHook(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("float64", "float16", "overflow"))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "float64 to float16") {
		t.Errorf("unexpected warning: %v", got[0])
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestStacktrace(t *testing.T) {
	if Stacktrace(nil) != "" {
		t.Error("nil error has no stack")
	}
	trace := Stacktrace(NewValueError("Score", "missing column"))
	if !strings.Contains(trace, "errors_test.go") {
		t.Errorf("expected stack to mention the test file, got %q", trace)
	}
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("loss", []float64{1, 2, 3}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("loss", []float64{1, nan()}, 7)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Iteration != 7 {
		t.Errorf("Iteration = %d, want 7", numErr.Iteration)
	}
}

func TestClipValue(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-3, -1},
		{0.5, 0.5},
		{2, 1},
	}
	for _, tt := range tests {
		if got := ClipValue(tt.in, -1, 1); got != tt.want {
			t.Errorf("ClipValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := ClipValue(nan(), -1, 1); got == got {
		t.Errorf("ClipValue(NaN) = %v, want NaN", got)
	}
}
