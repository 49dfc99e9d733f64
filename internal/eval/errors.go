package eval

import "fmt"

// ValidationError reports malformed input detected before any pipeline
// stage runs: wrong dimensionality, empty windows, out-of-range
// configuration. No partial pipeline state exists when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "eval: validation: " + e.Reason
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InferenceError reports a classifier failure: the call itself failed,
// a repeat returned a different (window × class) shape than the first,
// or a probability was not finite. Repeat is the zero-based repeat
// index that failed, or -1 when no single repeat is attributable.
type InferenceError struct {
	Repeat int
	Err    error
}

func (e *InferenceError) Error() string {
	if e.Repeat >= 0 {
		return fmt.Sprintf("eval: inference repeat %d: %v", e.Repeat, e.Err)
	}
	return fmt.Sprintf("eval: inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// FilterError reports a smoothing failure: the external low-pass filter
// returned an error or a signal of a different length for the named
// class channel.
type FilterError struct {
	Class string
	Err   error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("eval: filter class %q: %v", e.Class, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }
