package eval

import (
	"gonum.org/v1/gonum/interp"
)

// Curve is a continuous per-class probability signal sampled at
// SampleRate. Values is class-major: Values[c][i] is class c at sample
// i. All classes share the same length.
type Curve struct {
	SampleRate int
	Values     [][]float64
}

// Samples returns the per-class length of the curve.
func (c *Curve) Samples() int {
	if len(c.Values) == 0 {
		return 0
	}
	return len(c.Values[0])
}

// Classes returns the number of class channels.
func (c *Curve) Classes() int { return len(c.Values) }

// clone returns a deep copy with the same geometry.
func (c *Curve) clone() *Curve {
	out := &Curve{SampleRate: c.SampleRate, Values: make([][]float64, len(c.Values))}
	for i, v := range c.Values {
		out.Values[i] = append([]float64(nil), v...)
	}
	return out
}

// ReconstructCurve maps per-window mean probabilities onto a continuous
// per-sample timeline. Each window contributes one anchor point at
//
//	t_k = k·step + offset,  step = ws·(1-overlap)
//
// where offset is 0, ws/2 or ws depending on the anchor choice. A
// shape-preserving piecewise cubic (Fritsch-Butland) is fitted through
// the anchors per class and evaluated at every sample of the instance
// duration ws + (n-1)·step. Outside the anchor range the interpolant
// extrapolates flat, holding the boundary value. With a single window
// the curve is constant at that window's value.
func ReconstructCurve(stats *WindowStats, opts *Options) (*Curve, error) {
	n := stats.Windows
	if n == 0 {
		return nil, validationf("cannot reconstruct a curve from zero windows")
	}

	step := opts.Step()
	duration := opts.WindowSize + float64(n-1)*step
	samples := int(float64(opts.SampleRate) * duration)
	if samples < 1 {
		samples = 1
	}

	var offset float64
	switch opts.Anchor {
	case AnchorStart:
		offset = 0
	case AnchorMiddle:
		offset = opts.WindowSize / 2
	case AnchorEnd:
		offset = opts.WindowSize
	}

	anchors := make([]float64, n)
	for k := range anchors {
		anchors[k] = float64(k)*step + offset
	}

	curve := &Curve{
		SampleRate: opts.SampleRate,
		Values:     make([][]float64, stats.Classes),
	}
	ys := make([]float64, n)
	for c := 0; c < stats.Classes; c++ {
		for w := 0; w < n; w++ {
			ys[w] = stats.Mean[w][c]
		}
		out := make([]float64, samples)
		if n == 1 {
			for i := range out {
				out[i] = ys[0]
			}
			curve.Values[c] = out
			continue
		}
		var fb interp.FritschButland
		if err := fb.Fit(anchors, ys); err != nil {
			return nil, validationf("interpolant fit for class %d: %v", c, err)
		}
		for i := range out {
			out[i] = fb.Predict(float64(i) / float64(opts.SampleRate))
		}
		curve.Values[c] = out
	}
	return curve, nil
}
