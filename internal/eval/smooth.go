package eval

import "fmt"

// FilterFunc is the external low-pass filtering capability. It must
// return a signal of the same length as its input; any error or length
// mismatch surfaces as a FilterError.
type FilterFunc func(signal []float64, sampleRate int) ([]float64, error)

// SmoothCurve applies the filter independently to every class channel
// and returns a new curve of identical geometry. The input curve is
// left untouched.
func SmoothCurve(c *Curve, f FilterFunc, classNames []string) (*Curve, error) {
	out := &Curve{SampleRate: c.SampleRate, Values: make([][]float64, c.Classes())}
	for i, channel := range c.Values {
		name := className(classNames, i)
		smoothed, err := f(channel, c.SampleRate)
		if err != nil {
			return nil, &FilterError{Class: name, Err: err}
		}
		if len(smoothed) != len(channel) {
			return nil, &FilterError{Class: name, Err: fmt.Errorf("length changed: got %d, want %d", len(smoothed), len(channel))}
		}
		out.Values[i] = smoothed
	}
	return out, nil
}

// className is tolerant of short name lists so that internal stages can
// report on channels the caller never labelled.
func className(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("class_%d", i)
}
