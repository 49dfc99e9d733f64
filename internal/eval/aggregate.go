package eval

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// Classifier is the external inference capability. Predict returns
// per-window, per-class probabilities for one prepared instance. For a
// fixed input the returned shape must not vary between calls; shape
// drift across repeats is an InferenceError. Predict has no intrinsic
// timeout: callers that need one impose it through ctx.
type Classifier interface {
	Predict(ctx context.Context, input [][]float64) ([][]float64, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, input [][]float64) ([][]float64, error)

// Predict calls f.
func (f ClassifierFunc) Predict(ctx context.Context, input [][]float64) ([][]float64, error) {
	return f(ctx, input)
}

// GenerateProbabilities runs the classifier repeats times over the same
// input and stacks the results into a ProbabilityTensor. Repeats are
// independent and run concurrently on up to parallelism workers
// (sequentially when parallelism <= 1). The tensor is assembled only
// after every repeat has finished; there is no partial aggregation.
//
// The first repeat to fail cancels the rest and its error is returned
// as an InferenceError. No retry is attempted here; a retry policy
// belongs to the caller.
func GenerateProbabilities(ctx context.Context, c Classifier, input [][]float64, repeats, parallelism int) (*ProbabilityTensor, error) {
	if repeats < 1 {
		return nil, validationf("repeats must be at least 1, got %d", repeats)
	}
	if len(input) == 0 {
		return nil, validationf("input must have at least one window")
	}

	outputs := make([][][]float64, repeats)
	errs := make([]error, repeats)

	workers := parallelism
	if workers <= 1 {
		workers = 1
	}
	if workers > repeats {
		workers = repeats
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				out, err := c.Predict(runCtx, input)
				if err != nil {
					errs[r] = err
					cancel() // abandon remaining repeats
					continue
				}
				outputs[r] = out
			}
		}()
	}
	for r := 0; r < repeats; r++ {
		select {
		case jobs <- r:
		case <-runCtx.Done():
			r = repeats // stop dispatching
		}
	}
	close(jobs)
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			return nil, &InferenceError{Repeat: r, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &InferenceError{Repeat: -1, Err: err}
	}

	return stack(outputs)
}

// stack validates shape constancy and finiteness across repeats and
// copies the outputs into one flat tensor.
func stack(outputs [][][]float64) (*ProbabilityTensor, error) {
	windows := len(outputs[0])
	if windows == 0 {
		return nil, &InferenceError{Repeat: 0, Err: fmt.Errorf("classifier returned zero windows")}
	}
	classes := len(outputs[0][0])
	if classes == 0 {
		return nil, &InferenceError{Repeat: 0, Err: fmt.Errorf("classifier returned zero classes")}
	}

	t := &ProbabilityTensor{
		Repeats: len(outputs),
		Windows: windows,
		Classes: classes,
		data:    make([]float64, len(outputs)*windows*classes),
	}
	for r, out := range outputs {
		if len(out) != windows {
			return nil, &InferenceError{Repeat: r, Err: fmt.Errorf("window count drifted: got %d, want %d", len(out), windows)}
		}
		for w, row := range out {
			if len(row) != classes {
				return nil, &InferenceError{Repeat: r, Err: fmt.Errorf("class count drifted at window %d: got %d, want %d", w, len(row), classes)}
			}
			for c, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, &InferenceError{Repeat: r, Err: fmt.Errorf("non-finite probability %g at window %d class %d", v, w, c)}
				}
				t.data[(r*windows+w)*classes+c] = v
			}
		}
	}
	return t, nil
}
