// Package dsp provides the low-pass smoothing primitive used to
// flatten reconstructed probability curves before thresholding.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// biquad is one second-order section in direct form II transposed.
// b are the numerator coefficients, a1/a2 the denominator (a0 = 1).
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (s biquad) apply(dst, src []float64) {
	var z1, z2 float64
	for i, x := range src {
		y := s.b0*x + z1
		z1 = s.b1*x - s.a1*y + z2
		z2 = s.b2*x - s.a2*y
		dst[i] = y
	}
}

// designLowpass computes the cascaded second-order sections of a
// Butterworth low-pass via bilinear transform with frequency
// prewarping. cutoff and fs are in Hz.
func designLowpass(cutoff float64, order int, fs float64) ([]biquad, error) {
	if order < 1 {
		return nil, fmt.Errorf("dsp: order must be at least 1, got %d", order)
	}
	nyquist := fs / 2
	if cutoff <= 0 || cutoff >= nyquist {
		return nil, fmt.Errorf("dsp: cutoff %g Hz outside (0, %g)", cutoff, nyquist)
	}

	// Prewarped analog cutoff so the digital response crosses -3 dB at
	// the requested frequency.
	wc := 2 * fs * math.Tan(math.Pi*cutoff/fs)

	var sections []biquad
	if order%2 == 1 {
		// Real pole at -wc.
		zp := (2*fs - wc) / (2*fs + wc)
		g := (1 - zp) / 2
		sections = append(sections, biquad{b0: g, b1: g, a1: -zp})
	}
	for k := 0; k < order/2; k++ {
		// Conjugate analog pole pair on the Butterworth circle.
		theta := math.Pi * float64(2*k+order+1) / float64(2*order)
		p := complex(wc*math.Cos(theta), wc*math.Sin(theta))
		// Bilinear transform to the z-plane.
		zp := (complex(2*fs, 0) + p) / (complex(2*fs, 0) - p)
		re := real(zp)
		mag2 := math.Pow(cmplx.Abs(zp), 2)
		a1 := -2 * re
		a2 := mag2
		// Unity gain at DC.
		g := (1 + a1 + a2) / 4
		sections = append(sections, biquad{b0: g, b1: 2 * g, b2: g, a1: a1, a2: a2})
	}
	return sections, nil
}

// Lowpass returns a zero-phase Butterworth low-pass filter compatible
// with the pipeline's FilterFunc collaborator slot. The signal is
// filtered forward and backward through the section cascade, so event
// boundaries are not shifted in time. Output length always equals
// input length.
func Lowpass(cutoff float64, order int) func(signal []float64, sampleRate int) ([]float64, error) {
	return func(signal []float64, sampleRate int) ([]float64, error) {
		if len(signal) == 0 {
			return nil, fmt.Errorf("dsp: empty signal")
		}
		sections, err := designLowpass(cutoff, order, float64(sampleRate))
		if err != nil {
			return nil, err
		}

		// Odd reflection at both ends limits startup transients, the
		// same trick scipy's filtfilt uses.
		pad := 3 * (2*order + 1)
		if pad >= len(signal) {
			pad = len(signal) - 1
		}
		ext := extendOddReflect(signal, pad)

		buf := make([]float64, len(ext))
		copy(buf, ext)
		tmp := make([]float64, len(ext))
		for _, s := range sections {
			s.apply(tmp, buf)
			buf, tmp = tmp, buf
		}
		reverse(buf)
		for _, s := range sections {
			s.apply(tmp, buf)
			buf, tmp = tmp, buf
		}
		reverse(buf)

		out := make([]float64, len(signal))
		copy(out, buf[pad:pad+len(signal)])
		return out, nil
	}
}

// extendOddReflect mirrors pad samples about each endpoint, negated
// around the endpoint value.
func extendOddReflect(x []float64, pad int) []float64 {
	ext := make([]float64, pad+len(x)+pad)
	for i := 0; i < pad; i++ {
		ext[pad-1-i] = 2*x[0] - x[i+1]
		ext[pad+len(x)+i] = 2*x[len(x)-1] - x[len(x)-2-i]
	}
	copy(ext[pad:], x)
	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
