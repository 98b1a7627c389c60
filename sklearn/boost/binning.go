package boost

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/numerai/core/parallel"
)

// binMapper buckets raw feature values. Bin b of feature f holds the
// values v with cuts[f][b-1] <= v < cuts[f][b]; NaN goes to a dedicated
// missing bin after the last value bin.
type binMapper struct {
	cuts [][]float64
}

func (m *binMapper) nBins(f int) int { return len(m.cuts[f]) + 1 }

func (m *binMapper) missingBin(f int) uint16 { return uint16(len(m.cuts[f]) + 1) }

func (m *binMapper) bin(f int, v float64) uint16 {
	if math.IsNaN(v) {
		return m.missingBin(f)
	}
	cuts := m.cuts[f]
	return uint16(sort.Search(len(cuts), func(i int) bool { return cuts[i] > v }))
}

// threshold returns the raw split value for "bin <= b goes left".
func (m *binMapper) threshold(f int, b int) float64 { return m.cuts[f][b] }

// binnedData is the training matrix after bucketing, stored feature-major.
type binnedData struct {
	mapper *binMapper
	bins   [][]uint16
	rows   int
}

// newBinnedData computes per-feature quantile cuts and buckets every value.
func newBinnedData(X mat.Matrix, maxBin, workers int) *binnedData {
	rows, cols := X.Dims()
	d := &binnedData{
		mapper: &binMapper{cuts: make([][]float64, cols)},
		bins:   make([][]uint16, cols),
		rows:   rows,
	}

	parallel.ParallelizeN(cols, workers, func(start, end int) {
		column := make([]float64, rows)
		sorted := make([]float64, 0, rows)
		for f := start; f < end; f++ {
			sorted = sorted[:0]
			for i := 0; i < rows; i++ {
				v := X.At(i, f)
				column[i] = v
				if !math.IsNaN(v) {
					sorted = append(sorted, v)
				}
			}
			sort.Float64s(sorted)
			d.mapper.cuts[f] = computeCuts(sorted, maxBin)

			bins := make([]uint16, rows)
			for i, v := range column {
				bins[i] = d.mapper.bin(f, v)
			}
			d.bins[f] = bins
		}
	})
	return d
}

// computeCuts returns at most maxBin-1 increasing cut points for sorted.
// Features with few distinct values get one cut between each pair of
// neighbours; the rest are split at empirical quantiles.
func computeCuts(sorted []float64, maxBin int) []float64 {
	if len(sorted) == 0 {
		return nil
	}

	distinct := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			distinct++
		}
	}

	var cuts []float64
	if distinct <= maxBin {
		for i := 1; i < len(sorted); i++ {
			if sorted[i] != sorted[i-1] {
				cuts = append(cuts, sorted[i-1]+(sorted[i]-sorted[i-1])/2)
			}
		}
		return cuts
	}

	for k := 1; k < maxBin; k++ {
		q := stat.Quantile(float64(k)/float64(maxBin), stat.Empirical, sorted, nil)
		if q <= sorted[0] || (len(cuts) > 0 && q <= cuts[len(cuts)-1]) {
			continue
		}
		cuts = append(cuts, q)
	}
	return cuts
}
