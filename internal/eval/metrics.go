package eval

import "math"

// Ratio is a trust-metric value. A Ratio whose denominator was zero is
// the distinguished NotApplicable value rather than an error: an empty
// ground-truth side makes the metric undefined, not the evaluation
// invalid.
type Ratio float64

// NotApplicable is the sentinel returned when a metric's denominator
// is zero. It is NaN-backed, so arithmetic on it stays not-applicable.
var NotApplicable = Ratio(math.NaN())

// IsApplicable reports whether the ratio holds a defined value.
func (r Ratio) IsApplicable() bool { return !math.IsNaN(float64(r)) }

// Metrics are the scalar trust metrics derived from ICSD counts. They
// are pure functions of the counts and carry no curve state.
type Metrics struct {
	// DetectionRatio is C/(C+D+S): the fraction of ground-truth events
	// the system detected at all, rightly or wrongly classed.
	DetectionRatio Ratio
	// Reliability is C/(C+I): the fraction of accepted detections that
	// were correct, penalizing spurious events.
	Reliability Ratio
	// ErrorRate is (S+D+I)/(C+S+D): the event error rate, an
	// event-stream analogue of word error rate. May exceed 1 when
	// insertions dominate.
	ErrorRate Ratio
}

// DetectionRatio computes C/(C+D+S), or NotApplicable when there are
// no ground-truth events.
func DetectionRatio(c Counts) Ratio {
	return ratio(c.Correct, c.Correct+c.Deletion+c.Substitution)
}

// Reliability computes C/(C+I), or NotApplicable when nothing was
// matched correctly and nothing was inserted.
func Reliability(c Counts) Ratio {
	return ratio(c.Correct, c.Correct+c.Insertion)
}

// ErrorRate computes (S+D+I)/(C+S+D), or NotApplicable when there are
// no ground-truth events.
func ErrorRate(c Counts) Ratio {
	return ratio(c.Substitution+c.Deletion+c.Insertion, c.Correct+c.Substitution+c.Deletion)
}

// ComputeMetrics evaluates all three trust metrics.
func ComputeMetrics(c Counts) Metrics {
	return Metrics{
		DetectionRatio: DetectionRatio(c),
		Reliability:    Reliability(c),
		ErrorRate:      ErrorRate(c),
	}
}

func ratio(num, den int) Ratio {
	if den == 0 {
		return NotApplicable
	}
	return Ratio(float64(num) / float64(den))
}
