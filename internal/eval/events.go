package eval

import "math"

// Event is a half-open time interval [Start, End) in seconds, tagged
// with a class label. Start < End always holds for events produced by
// this package. Events are never mutated after creation; filtering
// produces new slices.
type Event struct {
	Label string
	Start float64
	End   float64
}

// Duration returns End - Start in seconds.
func (e Event) Duration() float64 { return e.End - e.Start }

// IoU returns the temporal intersection-over-union of two half-open
// intervals. It is 0 when the intervals do not overlap and 1 iff they
// are identical; class labels are ignored.
func IoU(a, b Event) float64 {
	overlap := math.Min(a.End, b.End) - math.Max(a.Start, b.Start)
	if overlap <= 0 {
		return 0
	}
	union := a.Duration() + b.Duration() - overlap
	return overlap / union
}

// run is a contiguous span of active samples, half-open in sample
// indices.
type run struct {
	start, end int
}

// extractRuns scans the mask left to right. A run starts on a
// false→true transition and ends on the next true→false transition or
// at the end of the mask. Runs separated by even a single false sample
// stay separate; gap merging is deliberately not performed.
func extractRuns(mask []bool) []run {
	var runs []run
	start := -1
	for i, on := range mask {
		switch {
		case on && start < 0:
			start = i
		case !on && start >= 0:
			runs = append(runs, run{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, run{start, len(mask)})
	}
	return runs
}

// ExtractEvents thresholds the curve per class and converts the
// surviving active runs into predicted events. A sample is active when
// its value is at or above probTh. Candidate events shorter than
// minDuration seconds are dropped (minDuration 0 keeps everything). An
// all-inactive curve yields zero events.
//
// The second return value is the curve rebuilt from the surviving
// events only: active samples keep their smoothed value, everything
// else is zero. It exists for visualization; matching operates on the
// event list alone.
func ExtractEvents(c *Curve, classNames []string, probTh, minDuration float64) ([]Event, *Curve) {
	var events []Event
	masked := &Curve{SampleRate: c.SampleRate, Values: make([][]float64, c.Classes())}
	sr := float64(c.SampleRate)

	for ci, channel := range c.Values {
		mask := make([]bool, len(channel))
		for i, v := range channel {
			mask[i] = v >= probTh
		}
		kept := make([]float64, len(channel))
		for _, r := range extractRuns(mask) {
			ev := Event{
				Label: className(classNames, ci),
				Start: float64(r.start) / sr,
				End:   float64(r.end) / sr,
			}
			if minDuration > 0 && ev.Duration() < minDuration {
				continue
			}
			events = append(events, ev)
			copy(kept[r.start:r.end], channel[r.start:r.end])
		}
		masked.Values[ci] = kept
	}
	return events, masked
}
