package eval

import "math"

// Anchor selects the timestamp within a window that represents the
// window's probability value during curve reconstruction.
type Anchor int

const (
	// AnchorStart places the anchor at the window's first sample.
	AnchorStart Anchor = iota
	// AnchorMiddle places the anchor at the window's midpoint.
	AnchorMiddle
	// AnchorEnd places the anchor at the window's last sample.
	AnchorEnd
)

// String returns the anchor name as used in configuration files.
func (a Anchor) String() string {
	switch a {
	case AnchorStart:
		return "start"
	case AnchorMiddle:
		return "middle"
	case AnchorEnd:
		return "end"
	}
	return "unknown"
}

// MatchScope fixes which predicted events are candidates for a
// ground-truth event during matching.
type MatchScope int

const (
	// MatchAllClasses considers every unconsumed predicted event
	// regardless of class; the class is compared only after the IoU
	// threshold is met, so cross-class matches become substitutions.
	MatchAllClasses MatchScope = iota
	// MatchSameClass restricts candidates to the ground-truth event's
	// own class channel. Cross-class substitutions cannot occur.
	MatchSameClass
)

// Field names a component of the Result bundle that can be requested
// through Options.Include.
type Field string

const (
	FieldTransformed  Field = "transformed_data"
	FieldProbas       Field = "prediction_probas"
	FieldStats        Field = "pred_stats"
	FieldInterpolated Field = "interpolated_probas"
	FieldSmoothed     Field = "smoothed_probas"
	FieldThresholded  Field = "thresholded_probas"
	FieldEvents       Field = "predicted_events"
	FieldICSD         Field = "icsd"
	FieldFigures      Field = "figures"
	FieldMetrics      Field = "trust_metrics"
)

// DefaultInclude returns the full field roster. Callers that pass
// Options.Include == nil get every field.
func DefaultInclude() []Field {
	return []Field{
		FieldTransformed, FieldProbas, FieldStats,
		FieldInterpolated, FieldSmoothed, FieldThresholded,
		FieldEvents, FieldICSD, FieldFigures, FieldMetrics,
	}
}

// Options carries the full configuration of a single-instance
// evaluation. The same struct is threaded unchanged through every
// stage; stages never mutate it.
type Options struct {
	// SampleRate is the sampling rate of the underlying signal in Hz.
	SampleRate int
	// WindowSize is the inference window length in seconds.
	WindowSize float64
	// Overlap is the fraction of a window shared with its successor,
	// in [0, 1).
	Overlap float64
	// Repeats is the number of stochastic inference passes, at least 1.
	Repeats int
	// Parallelism bounds the number of concurrent repeats. Zero or one
	// runs them sequentially.
	Parallelism int
	// ProbThreshold is the probability at or above which a sample
	// counts as event-active.
	ProbThreshold float64
	// MinDuration is the shortest admissible event in seconds. Zero
	// disables the duration filter.
	MinDuration float64
	// IoUThreshold is the minimum temporal IoU for a match, in (0, 1].
	IoUThreshold float64
	// Anchor selects the interpolation anchor within each window.
	Anchor Anchor
	// Scope fixes the candidate pool during event matching.
	Scope MatchScope
	// ClassNames labels the classifier's output columns, in order.
	ClassNames []string
	// Include lists the Result fields to populate. Nil means
	// DefaultInclude(). ICSD counts and trust metrics are computed
	// regardless, as later stages need them.
	Include []Field
}

// DefaultOptions returns the configuration used when a caller supplies
// only the instance geometry. The thresholds mirror the defaults of
// the robustness-analysis procedure this package implements.
func DefaultOptions(sampleRate int, windowSize, overlap float64, classNames []string) Options {
	return Options{
		SampleRate:    sampleRate,
		WindowSize:    windowSize,
		Overlap:       overlap,
		Repeats:       5,
		ProbThreshold: 0.7,
		MinDuration:   1.0,
		IoUThreshold:  0.5,
		Anchor:        AnchorMiddle,
		Scope:         MatchAllClasses,
		ClassNames:    classNames,
	}
}

// Validate checks the option ranges before any stage runs.
func (o *Options) Validate() error {
	if o.SampleRate <= 0 {
		return validationf("sample rate must be positive, got %d", o.SampleRate)
	}
	if o.WindowSize <= 0 || math.IsNaN(o.WindowSize) {
		return validationf("window size must be positive, got %g", o.WindowSize)
	}
	if o.Overlap < 0 || o.Overlap >= 1 || math.IsNaN(o.Overlap) {
		return validationf("overlap must be in [0,1), got %g", o.Overlap)
	}
	if o.Repeats < 1 {
		return validationf("repeats must be at least 1, got %d", o.Repeats)
	}
	if o.IoUThreshold <= 0 || o.IoUThreshold > 1 || math.IsNaN(o.IoUThreshold) {
		return validationf("IoU threshold must be in (0,1], got %g", o.IoUThreshold)
	}
	if o.MinDuration < 0 || math.IsNaN(o.MinDuration) {
		return validationf("minimum duration must be non-negative, got %g", o.MinDuration)
	}
	if len(o.ClassNames) == 0 {
		return validationf("at least one class name is required")
	}
	switch o.Anchor {
	case AnchorStart, AnchorMiddle, AnchorEnd:
	default:
		return validationf("unknown anchor %d", o.Anchor)
	}
	return nil
}

// includes reports whether f is on the allow-list.
func (o *Options) includes(f Field) bool {
	roster := o.Include
	if roster == nil {
		roster = DefaultInclude()
	}
	for _, have := range roster {
		if have == f {
			return true
		}
	}
	return false
}

// Step returns the hop between consecutive window anchors in seconds.
func (o *Options) Step() float64 {
	return o.WindowSize * (1 - o.Overlap)
}
