package boost

import (
	"math"
	"time"

	"github.com/YuminosukeSato/numerai/pkg/log"
)

// CallbackEnv contains the environment for callbacks
type CallbackEnv struct {
	Booster      *Booster
	Iteration    int
	BeginTime    time.Time
	EndTime      time.Time
	EvalResults  map[string]float64
	StopTraining bool
}

// Callback is a function that can be called after each boosting round
type Callback func(env *CallbackEnv) error

// LogEvaluation logs the evaluation results every period rounds.
func LogEvaluation(logger log.Logger, period int) Callback {
	if period < 1 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if (env.Iteration+1)%period != 0 {
			return nil
		}
		fields := []any{log.IterationKey, env.Iteration + 1}
		for name, value := range env.EvalResults {
			fields = append(fields, name, value)
		}
		logger.Debug("Boosting round completed", fields...)
		return nil
	}
}

// RecordEvaluation records evaluation history
func RecordEvaluation(history *map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = make(map[string][]float64)
		}
		for name, value := range env.EvalResults {
			(*history)[name] = append((*history)[name], value)
		}
		return nil
	}
}

// EarlyStopping stops training when metric has not improved for rounds
// consecutive iterations.
func EarlyStopping(rounds int, metric string, minimize bool) Callback {
	bestScore := math.Inf(1)
	if !minimize {
		bestScore = math.Inf(-1)
	}
	roundsNoImprove := 0

	return func(env *CallbackEnv) error {
		value, exists := env.EvalResults[metric]
		if !exists {
			return nil
		}
		improved := value < bestScore
		if !minimize {
			improved = value > bestScore
		}
		if improved {
			bestScore = value
			roundsNoImprove = 0
			return nil
		}
		roundsNoImprove++
		if roundsNoImprove >= rounds {
			env.StopTraining = true
		}
		return nil
	}
}

// TimeLimit stops training after a specified duration
func TimeLimit(maxDuration time.Duration) Callback {
	var startTime time.Time
	return func(env *CallbackEnv) error {
		if startTime.IsZero() {
			startTime = env.BeginTime
		}
		if env.EndTime.Sub(startTime) > maxDuration {
			env.StopTraining = true
		}
		return nil
	}
}

// CallbackList manages multiple callbacks
type CallbackList struct {
	callbacks []Callback
	env       *CallbackEnv
}

// NewCallbackList creates a new callback list
func NewCallbackList(callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env:       &CallbackEnv{EvalResults: make(map[string]float64)},
	}
}

// BeforeIteration records the start of a round.
func (cl *CallbackList) BeforeIteration(iteration int) {
	cl.env.Iteration = iteration
	cl.env.BeginTime = time.Now()
}

// AfterIteration calls callbacks after each iteration
func (cl *CallbackList) AfterIteration(iteration int, booster *Booster, evalResults map[string]float64) error {
	cl.env.Iteration = iteration
	cl.env.Booster = booster
	cl.env.EndTime = time.Now()
	cl.env.EvalResults = evalResults

	for _, cb := range cl.callbacks {
		if err := cb(cl.env); err != nil {
			return err
		}
	}
	return nil
}

// ShouldStop returns whether training should stop
func (cl *CallbackList) ShouldStop() bool {
	return cl.env.StopTraining
}
