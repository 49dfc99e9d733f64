// Package transform prepares raw instances for inference: segmenting a
// recording into overlapping windows, optionally condensing each
// window into spectral features, and augmenting a corpus with
// perturbed copies.
package transform

import (
	"fmt"

	"github.com/aiot-group/crossai-eval/internal/spectral"
)

// Windower segments one channel of a raw instance into overlapping
// windows. It implements the batch pipeline's Transform collaborator.
type Windower struct {
	// SampleRate of the raw signal in Hz.
	SampleRate int
	// WindowSize in seconds.
	WindowSize float64
	// Overlap fraction shared by consecutive windows, in [0, 1).
	Overlap float64
	// Channel index of the raw matrix to window.
	Channel int
	// Spectral replaces each window's samples with its spectral
	// feature vector instead of the raw amplitudes.
	Spectral bool
}

// Apply segments raw (channel-major) into a window × feature batch.
// Trailing samples that do not fill a whole window are dropped.
func (w *Windower) Apply(raw [][]float64) ([][]float64, error) {
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("transform: sample rate must be positive, got %d", w.SampleRate)
	}
	if w.Overlap < 0 || w.Overlap >= 1 {
		return nil, fmt.Errorf("transform: overlap %g outside [0,1)", w.Overlap)
	}
	if w.Channel < 0 || w.Channel >= len(raw) {
		return nil, fmt.Errorf("transform: channel %d out of range (%d channels)", w.Channel, len(raw))
	}
	signal := raw[w.Channel]

	win := int(w.WindowSize * float64(w.SampleRate))
	if win < 1 {
		return nil, fmt.Errorf("transform: window of %g s too short at %d Hz", w.WindowSize, w.SampleRate)
	}
	step := int(float64(win) * (1 - w.Overlap))
	if step < 1 {
		step = 1
	}
	if len(signal) < win {
		return nil, fmt.Errorf("transform: signal of %d samples shorter than one window (%d)", len(signal), win)
	}

	var batch [][]float64
	for start := 0; start+win <= len(signal); start += step {
		window := signal[start : start+win]
		if !w.Spectral {
			batch = append(batch, append([]float64(nil), window...))
			continue
		}
		f, err := spectral.Extract(window, w.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("transform: window at sample %d: %w", start, err)
		}
		batch = append(batch, []float64{
			f.Centroid, f.Spread, f.Skewness, f.Kurtosis,
			f.Rolloff, f.Bandwidth, f.Flatness,
		})
	}
	return batch, nil
}
