package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/numerai/pipeline"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/pkg/log"
)

// Metrics holds the gauges describing one run.
type Metrics struct {
	EraCorrelation   *prometheus.GaugeVec // per-era correlation by partition
	CorrelationMean  *prometheus.GaugeVec
	CorrelationStd   *prometheus.GaugeVec
	PayoutMean       *prometheus.GaugeVec
	Eras             *prometheus.GaugeVec
	TrainingDuration prometheus.Gauge
	RunDuration      prometheus.Gauge
	SubmissionRows   prometheus.Gauge
}

// NewWithRegistry creates the gauges on registerer.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	partition := []string{"partition"}
	return &Metrics{
		EraCorrelation: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "numerai_era_correlation",
			Help: "Rank correlation of predictions and target within one era",
		}, []string{"partition", "era"}),
		CorrelationMean: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "numerai_correlation_mean",
			Help: "Mean of the per-era correlations",
		}, partition),
		CorrelationStd: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "numerai_correlation_std",
			Help: "Sample standard deviation of the per-era correlations",
		}, partition),
		PayoutMean: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "numerai_payout_mean",
			Help: "Mean per-era payout",
		}, partition),
		Eras: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "numerai_eras",
			Help: "Number of scored eras",
		}, partition),
		TrainingDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "numerai_training_duration_seconds",
			Help: "Wall time spent fitting the model",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "numerai_run_duration_seconds",
			Help: "Wall time of the whole pipeline run",
		}),
		SubmissionRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "numerai_submission_rows",
			Help: "Rows written to the submission file",
		}),
	}
}

// Observe sets every gauge from r.
func (m *Metrics) Observe(r *pipeline.Report) {
	for _, part := range []struct {
		name string
		pr   pipeline.PartitionReport
	}{
		{log.PhaseTraining, r.Training},
		{log.PhaseValidation, r.Validation},
	} {
		for _, e := range part.pr.Eras {
			m.EraCorrelation.WithLabelValues(part.name, e.Era).Set(e.Correlation)
		}
		m.CorrelationMean.WithLabelValues(part.name).Set(part.pr.Summary.CorrelationMean)
		m.CorrelationStd.WithLabelValues(part.name).Set(part.pr.Summary.CorrelationStd)
		m.PayoutMean.WithLabelValues(part.name).Set(part.pr.Summary.PayoutMean)
		m.Eras.WithLabelValues(part.name).Set(float64(part.pr.Summary.Eras))
	}
	m.TrainingDuration.Set(r.TrainingDuration.Seconds())
	m.RunDuration.Set(r.Duration.Seconds())
	m.SubmissionRows.Set(float64(r.OutputRows))
}

// WriteMetrics writes the run gauges to path in the Prometheus text format,
// ready for the node_exporter textfile collector.
func WriteMetrics(path string, r *pipeline.Report) error {
	registry := prometheus.NewRegistry()
	NewWithRegistry(registry).Observe(r)
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}
