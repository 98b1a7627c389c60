// Package report renders a finished pipeline run as a YAML document, an era
// correlation chart and a Prometheus textfile.
package report

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/numerai/pipeline"
	"github.com/YuminosukeSato/numerai/pkg/errors"
)

// WriteYAML writes r to path. NaN scores are written as .nan.
func WriteYAML(path string, r *pipeline.Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "report: marshal yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}

// ReadYAML loads a report written by WriteYAML.
func ReadYAML(path string) (*pipeline.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	var r pipeline.Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.NewParseError(path, 0, "", "invalid report", err)
	}
	return &r, nil
}
