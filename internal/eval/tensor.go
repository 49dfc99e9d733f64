package eval

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ProbabilityTensor is the stacked output of repeated inference over
// one instance, indexed repeat × window × class. The backing array is
// flat and row-major; the tensor is never mutated after Stack.
type ProbabilityTensor struct {
	Repeats int
	Windows int
	Classes int
	data    []float64
}

// At returns the probability for repeat r, window w, class c.
func (t *ProbabilityTensor) At(r, w, c int) float64 {
	return t.data[(r*t.Windows+w)*t.Classes+c]
}

// repeatColumn gathers the values of one (window, class) cell across
// all repeats into dst, which must have length Repeats.
func (t *ProbabilityTensor) repeatColumn(dst []float64, w, c int) {
	for r := 0; r < t.Repeats; r++ {
		dst[r] = t.At(r, w, c)
	}
}

// WindowStats holds per-window, per-class aggregates over the repeat
// axis. All matrices are window-major: m[w][c]. Mean is the working
// probability signal consumed by curve reconstruction; the remaining
// statistics support uncertainty reporting. Immutable once computed.
type WindowStats struct {
	Windows int
	Classes int
	Mean    [][]float64
	StdDev  [][]float64
	Min     [][]float64
	Max     [][]float64
}

// ComputeStats reduces the tensor along the repeat axis.
func ComputeStats(t *ProbabilityTensor) *WindowStats {
	s := &WindowStats{
		Windows: t.Windows,
		Classes: t.Classes,
		Mean:    newMatrix(t.Windows, t.Classes),
		StdDev:  newMatrix(t.Windows, t.Classes),
		Min:     newMatrix(t.Windows, t.Classes),
		Max:     newMatrix(t.Windows, t.Classes),
	}
	col := make([]float64, t.Repeats)
	for w := 0; w < t.Windows; w++ {
		for c := 0; c < t.Classes; c++ {
			t.repeatColumn(col, w, c)
			s.Mean[w][c] = stat.Mean(col, nil)
			if t.Repeats > 1 {
				s.StdDev[w][c] = stat.StdDev(col, nil)
			}
			s.Min[w][c] = floats.Min(col)
			s.Max[w][c] = floats.Max(col)
		}
	}
	return s
}

func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}
