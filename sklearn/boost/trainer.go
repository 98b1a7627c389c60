package boost

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numerai/core/parallel"
	"github.com/YuminosukeSato/numerai/metrics"
	"github.com/YuminosukeSato/numerai/pkg/errors"
	"github.com/YuminosukeSato/numerai/pkg/log"
)

// EvalMetric is the name under which the training RMSE is reported to
// callbacks.
const EvalMetric = "train-rmse"

// below this many rows per node the split search stays on one goroutine
const parallelRowThreshold = 2048

// Trainer grows the trees of a Booster.
type Trainer struct {
	params    Params
	objective Objective
	callbacks []Callback
	logger    log.Logger
	workers   int
}

// NewTrainer creates a trainer with the squared error objective.
func NewTrainer(params Params) *Trainer {
	return &Trainer{
		params:    params,
		objective: SquaredError{},
		logger:    log.GetLoggerWithName("boost.trainer"),
		workers:   parallel.Workers(params.NJobs),
	}
}

// WithCallbacks appends callbacks run after every boosting round.
func (t *Trainer) WithCallbacks(callbacks ...Callback) *Trainer {
	t.callbacks = append(t.callbacks, callbacks...)
	return t
}

// Fit trains a booster on X (samples × features) and y. Rows of X may hold
// NaN; y may not.
func (t *Trainer) Fit(ctx context.Context, X mat.Matrix, y []float64) (*Booster, error) {
	if err := t.params.Validate(); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "boost: fit")
	}
	if len(y) != rows {
		return nil, errors.NewDimensionError("Fit", rows, len(y), 0)
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewValueError("Fit", fmt.Sprintf("target is not finite at row %d", i))
		}
	}

	start := time.Now()
	t.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.EstimatorsKey, t.params.NEstimators,
		log.LearningRateKey, t.params.LearningRate,
		log.MaxDepthKey, t.params.MaxDepth,
		log.ColsampleKey, t.params.ColsampleBytree,
		log.JobsKey, t.workers,
	)

	data := newBinnedData(X, t.params.MaxBin, t.workers)

	booster := &Booster{
		BaseScore: t.objective.BaseScore(y),
		Trees:     make([]Tree, 0, t.params.NEstimators),
		NFeatures: cols,
		Objective: t.objective.Name(),
	}
	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = booster.BaseScore
	}

	g := &treeGrower{
		params:  t.params,
		data:    data,
		grad:    make([]float64, rows),
		hess:    make([]float64, rows),
		pred:    pred,
		workers: t.workers,
	}
	sampler := newFeatureSampler(cols, t.params.ColsampleBytree, t.params.RandomState)
	indices := make([]int, rows)
	callbacks := NewCallbackList(t.callbacks...)
	yVec := mat.NewVecDense(rows, y)
	predVec := mat.NewVecDense(rows, pred)

	var rmse float64
	for iter := 0; iter < t.params.NEstimators; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "boost: fit canceled at round %d", iter)
		}
		callbacks.BeforeIteration(iter)

		parallel.ParallelizeWithThreshold(rows, parallelRowThreshold, t.workers, func(s, e int) {
			for i := s; i < e; i++ {
				g.grad[i] = t.objective.Gradient(pred[i], y[i])
				g.hess[i] = t.objective.Hessian(pred[i], y[i])
			}
		})
		for i := range indices {
			indices[i] = i
		}
		g.features = sampler.sample()
		booster.Trees = append(booster.Trees, g.grow(indices))

		var err error
		rmse, err = metrics.RMSE(yVec, predVec)
		if err != nil {
			return nil, err
		}
		if err := errors.CheckNumericalStability("loss_calculation", []float64{rmse}, iter); err != nil {
			return nil, err
		}
		if err := callbacks.AfterIteration(iter, booster, map[string]float64{EvalMetric: rmse}); err != nil {
			return nil, errors.Wrapf(err, "boost: callback at round %d", iter)
		}
		if callbacks.ShouldStop() {
			t.logger.Info("Training stopped by callback", log.IterationKey, iter+1)
			break
		}
	}

	t.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		"trees", len(booster.Trees),
		log.LossKey, rmse,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return booster, nil
}

// treeGrower holds the per-round state of depth-wise tree construction.
type treeGrower struct {
	params   Params
	data     *binnedData
	grad     []float64
	hess     []float64
	pred     []float64
	features []int
	workers  int
	nodes    []Node
}

type splitInfo struct {
	feature     int
	bin         int
	defaultLeft bool
	gain        float64
}

func (g *treeGrower) grow(rows []int) Tree {
	g.nodes = make([]Node, 0, 1<<uint(min(g.params.MaxDepth+1, 12)))
	g.growNode(rows, 0)
	return Tree{Nodes: g.nodes}
}

func (g *treeGrower) growNode(rows []int, depth int) int {
	var sumG, sumH float64
	for _, r := range rows {
		sumG += g.grad[r]
		sumH += g.hess[r]
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{Left: -1, Right: -1, Cover: sumH, Depth: depth})

	if depth < g.params.MaxDepth && len(rows) >= 2 && sumH >= 2*g.params.MinChildWeight {
		if best, ok := g.findBestSplit(rows, sumG, sumH); ok {
			nLeft := g.partition(rows, best)
			if nLeft > 0 && nLeft < len(rows) {
				left := g.growNode(rows[:nLeft], depth+1)
				right := g.growNode(rows[nLeft:], depth+1)
				node := &g.nodes[idx]
				node.Feature = best.feature
				node.Threshold = g.data.mapper.threshold(best.feature, best.bin)
				node.DefaultLeft = best.defaultLeft
				node.Gain = best.gain
				node.Left = left
				node.Right = right
				return idx
			}
		}
	}

	value := -sumG / (sumH + g.params.RegLambda) * g.params.LearningRate
	g.nodes[idx].Value = value
	for _, r := range rows {
		g.pred[r] += value
	}
	return idx
}

// findBestSplit scans the gradient histogram of every sampled feature.
func (g *treeGrower) findBestSplit(rows []int, sumG, sumH float64) (splitInfo, bool) {
	nf := len(g.features)
	chunkBest := make([]splitInfo, nf)

	workers := g.workers
	if len(rows) < parallelRowThreshold {
		workers = 1
	}
	parallel.ParallelizeN(nf, workers, func(start, end int) {
		maxBins := 0
		for k := start; k < end; k++ {
			if n := g.data.mapper.nBins(g.features[k]) + 1; n > maxBins {
				maxBins = n
			}
		}
		histG := make([]float64, maxBins)
		histH := make([]float64, maxBins)
		for k := start; k < end; k++ {
			chunkBest[k] = g.bestSplitForFeature(g.features[k], rows, sumG, sumH, histG, histH)
		}
	})

	best := splitInfo{gain: 0}
	found := false
	for _, s := range chunkBest {
		if s.gain > best.gain {
			best = s
			found = true
		}
	}
	return best, found
}

func (g *treeGrower) bestSplitForFeature(f int, rows []int, sumG, sumH float64, histG, histH []float64) splitInfo {
	nBins := g.data.mapper.nBins(f)
	histG = histG[:nBins+1]
	histH = histH[:nBins+1]
	for i := range histG {
		histG[i] = 0
		histH[i] = 0
	}
	bins := g.data.bins[f]
	for _, r := range rows {
		b := bins[r]
		histG[b] += g.grad[r]
		histH[b] += g.hess[r]
	}
	missG, missH := histG[nBins], histH[nBins]

	lambda := g.params.RegLambda
	mcw := g.params.MinChildWeight
	parent := sumG * sumG / (sumH + lambda)
	best := splitInfo{feature: f, gain: 0}

	var gl, hl float64
	for b := 0; b < nBins-1; b++ {
		gl += histG[b]
		hl += histH[b]

		// missing values to the right
		gr, hr := sumG-gl, sumH-hl
		if hl >= mcw && hr >= mcw {
			gain := 0.5*(gl*gl/(hl+lambda)+gr*gr/(hr+lambda)-parent) - g.params.Gamma
			if gain > best.gain {
				best = splitInfo{feature: f, bin: b, gain: gain}
			}
		}

		if missH == 0 {
			continue
		}
		// missing values to the left
		glm, hlm := gl+missG, hl+missH
		grm, hrm := sumG-glm, sumH-hlm
		if hlm >= mcw && hrm >= mcw {
			gain := 0.5*(glm*glm/(hlm+lambda)+grm*grm/(hrm+lambda)-parent) - g.params.Gamma
			if gain > best.gain {
				best = splitInfo{feature: f, bin: b, defaultLeft: true, gain: gain}
			}
		}
	}
	return best
}

// partition reorders rows so that those going left come first and returns
// their count.
func (g *treeGrower) partition(rows []int, s splitInfo) int {
	bins := g.data.bins[s.feature]
	missing := g.data.mapper.missingBin(s.feature)
	goesLeft := func(r int) bool {
		b := bins[r]
		if b == missing {
			return s.defaultLeft
		}
		return int(b) <= s.bin
	}

	i, j := 0, len(rows)-1
	for i <= j {
		if goesLeft(rows[i]) {
			i++
			continue
		}
		rows[i], rows[j] = rows[j], rows[i]
		j--
	}
	return i
}
