package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model, e.g. "boost.Regressor".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "load", "fit", "predict", "score", "export"
	OperationKey = "ml.operation"

	// ComponentKey identifies the component that emitted the record.
	ComponentKey = "ml.component"

	// PhaseKey indicates the partition being evaluated.
	// Standard values: "training", "validation"
	PhaseKey = "ml.phase"

	// RunIDKey identifies one pipeline run.
	RunIDKey = "run.id"
)

// Data shape.
const (
	// SamplesKey indicates the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// ColumnsKey indicates the total number of columns in a table.
	ColumnsKey = "data.columns"

	// PathKey is the file a table was read from or written to.
	PathKey = "data.path"

	// EraKey is the era label a record refers to.
	EraKey = "data.era"

	// ErasKey is the number of eras in a partition.
	ErasKey = "data.eras"
)

// Performance and evaluation metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records the training loss.
	LossKey = "metrics.loss"

	// CorrelationKey records a correlation score.
	CorrelationKey = "metrics.correlation"

	// PayoutKey records a payout value.
	PayoutKey = "metrics.payout"

	// IterationKey records the boosting round.
	IterationKey = "training.iteration"
)

// Hyperparameters.
const (
	LearningRateKey = "hyperparams.learning_rate"
	MaxDepthKey     = "hyperparams.max_depth"
	EstimatorsKey   = "hyperparams.n_estimators"
	ColsampleKey    = "hyperparams.colsample_bytree"
	JobsKey         = "hyperparams.n_jobs"
	RandomSeedKey   = "config.random_seed"
)

// Error context.
const (
	// ErrorKey carries the error message.
	ErrorKey = "error"

	// StacktraceKey contains the stack trace attached by cockroachdb/errors.
	StacktraceKey = "stacktrace"
)

// Standard attribute values.
const (
	OperationLoad    = "load"
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationExport  = "export"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
)
