package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/numerai/linear"
	"github.com/YuminosukeSato/numerai/pipeline"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/pkg/log"
	"github.com/YuminosukeSato/numerai/report"
)

type rootOptions struct {
	configFile  string
	logLevel    string
	logJSON     bool
	reportFile  string
	plotFile    string
	metricsFile string
	model       string
	alpha       float64
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "numerai",
		Short: "Train, evaluate and export a tournament submission",
		Long: `numerai loads the training and tournament data, fits a gradient-boosted
tree model on the feature columns, prints the per-era correlation and payout
of the training and validation rows, and writes the tournament predictions
to <tournament>_submission.csv.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			log.Setup(stderr, level, !opts.logJSON)
			log.InstallWarningHook()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd, cfg, opts)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default: ./numerai.yaml when present)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.BoolVar(&opts.logJSON, "log-json", false, "write logs as JSON lines instead of console text")

	f := cmd.Flags()
	f.String("tournament", "", "tournament name (default kazutsugi)")
	f.String("training-data", "", "training data CSV")
	f.String("tournament-data", "", "tournament data CSV")
	f.String("output", "", "submission file (default <tournament>_submission.csv)")
	f.StringVar(&opts.model, "model", "boost", "regressor: boost (gradient-boosted trees) or linear (ridge baseline)")
	f.Float64Var(&opts.alpha, "alpha", 1, "L2 penalty of the linear model")
	f.StringVar(&opts.reportFile, "report", "", "write a YAML run report to this file")
	f.StringVar(&opts.plotFile, "plot", "", "write a per-era correlation chart (png, svg or pdf)")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this file")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func run(cmd *cobra.Command, cfg pipeline.Config, opts *rootOptions) error {
	var runOpts []pipeline.Option
	switch opts.model {
	case "boost":
	case "linear":
		runOpts = append(runOpts, pipeline.WithRegressor(
			linear.NewRidge(linear.WithAlpha(opts.alpha), linear.WithNJobs(cfg.Model.NJobs))))
	default:
		return errors.NewValidationError("model", "must be boost or linear", opts.model)
	}

	r, err := pipeline.Run(cmd.Context(), cfg, cmd.OutOrStdout(), runOpts...)
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("report")
	if opts.reportFile != "" {
		if err := report.WriteYAML(opts.reportFile, r); err != nil {
			return err
		}
		logger.Info("Report written", log.PathKey, opts.reportFile)
	}
	if opts.plotFile != "" {
		if err := report.PlotReport(opts.plotFile, r); err != nil {
			return err
		}
		logger.Info("Era chart written", log.PathKey, opts.plotFile)
	}
	if opts.metricsFile != "" {
		if err := report.WriteMetrics(opts.metricsFile, r); err != nil {
			return err
		}
		logger.Info("Metrics written", log.PathKey, opts.metricsFile)
	}
	return nil
}
