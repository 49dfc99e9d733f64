// Package spectral computes frequency-domain descriptors of a signal
// window. The features condense a window's magnitude spectrum into
// scalars suitable as classifier input features.
package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// spectrum holds the one-sided magnitude spectrum of a window together
// with the matching frequency axis in Hz.
type spectrum struct {
	mags  []float64
	freqs []float64
	sum   float64
}

func analyze(signal []float64, fs int) (*spectrum, error) {
	if len(signal) < 2 {
		return nil, fmt.Errorf("spectral: window too short: %d samples", len(signal))
	}
	fft := fourier.NewFFT(len(signal))
	coeffs := fft.Coefficients(nil, signal)

	s := &spectrum{
		mags:  make([]float64, len(coeffs)),
		freqs: make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		m := math.Hypot(real(c), imag(c))
		s.mags[i] = m
		s.freqs[i] = fft.Freq(i) * float64(fs)
		s.sum += m
	}
	if s.sum == 0 {
		return nil, fmt.Errorf("spectral: zero-energy window")
	}
	return s, nil
}

// Centroid returns the magnitude-weighted mean frequency of the
// window's spectrum in Hz.
func Centroid(signal []float64, fs int) (float64, error) {
	s, err := analyze(signal, fs)
	if err != nil {
		return 0, err
	}
	return s.centroid(), nil
}

func (s *spectrum) centroid() float64 {
	var acc float64
	for i, m := range s.mags {
		acc += m * s.freqs[i]
	}
	return acc / s.sum
}

// Spread returns the magnitude-weighted standard deviation of
// frequency around the centroid, in Hz.
func Spread(signal []float64, fs int) (float64, error) {
	s, err := analyze(signal, fs)
	if err != nil {
		return 0, err
	}
	return s.spread(s.centroid()), nil
}

func (s *spectrum) spread(centroid float64) float64 {
	var acc float64
	for i, m := range s.mags {
		d := s.freqs[i] - centroid
		acc += d * d * m
	}
	return math.Sqrt(acc / s.sum)
}

// Skewness returns the third standardized moment of the spectrum
// around its centroid.
func Skewness(signal []float64, fs int) (float64, error) {
	s, err := analyze(signal, fs)
	if err != nil {
		return 0, err
	}
	c := s.centroid()
	sp := s.spread(c)
	var acc float64
	for i, m := range s.mags {
		d := s.freqs[i] - c
		acc += d * d * d * m
	}
	return acc / (sp * sp * sp * s.sum), nil
}

// Kurtosis returns the fourth standardized moment of the spectrum
// around its centroid.
func Kurtosis(signal []float64, fs int) (float64, error) {
	s, err := analyze(signal, fs)
	if err != nil {
		return 0, err
	}
	c := s.centroid()
	sp := s.spread(c)
	var acc float64
	for i, m := range s.mags {
		d := s.freqs[i] - c
		acc += d * d * d * d * m
	}
	return acc / (sp * sp * sp * sp * s.sum), nil
}

// Rolloff returns the lowest frequency in Hz below which perc of the
// total spectral energy is contained. perc must be in (0, 1].
func Rolloff(signal []float64, fs int, perc float64) (float64, error) {
	if perc <= 0 || perc > 1 {
		return 0, fmt.Errorf("spectral: rolloff percentage %g outside (0,1]", perc)
	}
	s, err := analyze(signal, fs)
	if err != nil {
		return 0, err
	}
	var cum float64
	for i, m := range s.mags {
		cum += m
		if cum >= perc*s.sum {
			return s.freqs[i], nil
		}
	}
	return s.freqs[len(s.freqs)-1], nil
}

// Bandwidth returns the p-norm spectral bandwidth around the centroid,
// in Hz. p = 2 gives the conventional definition.
func Bandwidth(signal []float64, fs int, p float64) (float64, error) {
	if p <= 0 {
		return 0, fmt.Errorf("spectral: norm order %g must be positive", p)
	}
	s, err := analyze(signal, fs)
	if err != nil {
		return 0, err
	}
	c := s.centroid()
	var acc float64
	for i, m := range s.mags {
		acc += m * math.Pow(math.Abs(s.freqs[i]-c), p)
	}
	return math.Pow(acc/s.sum, 1/p), nil
}

// Flatness returns the ratio of the geometric to the arithmetic mean
// of the magnitude spectrum, in (0, 1]. White noise approaches 1, a
// pure tone approaches 0.
func Flatness(signal []float64, fs int) (float64, error) {
	s, err := analyze(signal, fs)
	if err != nil {
		return 0, err
	}
	var logSum float64
	for _, m := range s.mags {
		if m == 0 {
			return 0, nil
		}
		logSum += math.Log(m)
	}
	geo := math.Exp(logSum / float64(len(s.mags)))
	return geo / (s.sum / float64(len(s.mags))), nil
}

// Features bundles every descriptor for one window.
type Features struct {
	Centroid  float64
	Spread    float64
	Skewness  float64
	Kurtosis  float64
	Rolloff   float64
	Bandwidth float64
	Flatness  float64
}

// Extract computes the full feature set in one spectrum pass.
func Extract(signal []float64, fs int) (Features, error) {
	s, err := analyze(signal, fs)
	if err != nil {
		return Features{}, err
	}
	c := s.centroid()
	sp := s.spread(c)

	var m3, m4, bw, cum, logSum float64
	rolloff := s.freqs[len(s.freqs)-1]
	rolloffSet := false
	zeroMag := false
	for i, m := range s.mags {
		d := s.freqs[i] - c
		m3 += d * d * d * m
		m4 += d * d * d * d * m
		bw += m * d * d
		cum += m
		if !rolloffSet && cum >= 0.95*s.sum {
			rolloff = s.freqs[i]
			rolloffSet = true
		}
		if m == 0 {
			zeroMag = true
		} else {
			logSum += math.Log(m)
		}
	}
	flatness := 0.0
	if !zeroMag {
		geo := math.Exp(logSum / float64(len(s.mags)))
		flatness = geo / (s.sum / float64(len(s.mags)))
	}
	return Features{
		Centroid:  c,
		Spread:    sp,
		Skewness:  m3 / (sp * sp * sp * s.sum),
		Kurtosis:  m4 / (sp * sp * sp * sp * s.sum),
		Rolloff:   rolloff,
		Bandwidth: math.Sqrt(bw / s.sum),
		Flatness:  flatness,
	}, nil
}
