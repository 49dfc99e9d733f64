package eval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// windowClassifier ignores its input and returns fixed per-window
// probabilities, emulating a deterministic model.
func windowClassifier(probs [][]float64) Classifier {
	return ClassifierFunc(func(context.Context, [][]float64) ([][]float64, error) {
		out := make([][]float64, len(probs))
		for i, row := range probs {
			out[i] = append([]float64(nil), row...)
		}
		return out, nil
	})
}

func scenarioOptions() Options {
	opts := DefaultOptions(100, 1.0, 0.5, []string{"A"})
	opts.Repeats = 3
	opts.ProbThreshold = 0.5
	opts.MinDuration = 0.4
	return opts
}

func scenarioInput() [][]float64 {
	input := make([][]float64, 5)
	for i := range input {
		input[i] = []float64{0}
	}
	return input
}

func TestAnalyzeScenario(t *testing.T) {
	t.Parallel()

	// 5 windows of 1 s at 0.5 overlap, class-A means
	// [0.1 0.9 0.9 0.9 0.1]: one event spanning the high region.
	classifier := windowClassifier([][]float64{{0.1}, {0.9}, {0.9}, {0.9}, {0.1}})
	a, err := NewAnalyzer(classifier, identityFilter, nil, scenarioOptions())
	require.NoError(t, err)

	res, err := a.Analyze(context.Background(), scenarioInput(), nil)
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, "A", ev.Label)
	// The curve crosses 0.5 between the low and high anchors on both
	// sides: onset in (0.5, 1.0), offset in (2.0, 2.5).
	assert.Greater(t, ev.Start, 0.5)
	assert.Less(t, ev.Start, 1.0)
	assert.Greater(t, ev.End, 2.0)
	assert.Less(t, ev.End, 2.5)
	assert.GreaterOrEqual(t, ev.Duration(), 0.4)
}

func TestAnalyzeMatchesGroundTruth(t *testing.T) {
	t.Parallel()

	classifier := windowClassifier([][]float64{{0.1}, {0.9}, {0.9}, {0.9}, {0.1}})
	a, err := NewAnalyzer(classifier, identityFilter, nil, scenarioOptions())
	require.NoError(t, err)

	t.Run("overlapping ground truth is correct", func(t *testing.T) {
		t.Parallel()
		gt := []Event{{Label: "A", Start: 0.9, End: 2.3}}
		res, err := a.Analyze(context.Background(), scenarioInput(), gt)
		require.NoError(t, err)
		assert.Equal(t, Counts{Correct: 1}, res.Counts)
		assert.Equal(t, Ratio(1), res.Metrics.DetectionRatio)
		assert.Equal(t, Ratio(1), res.Metrics.Reliability)
		assert.Equal(t, Ratio(0), res.Metrics.ErrorRate)
	})

	t.Run("wrong-class ground truth is substitution", func(t *testing.T) {
		t.Parallel()
		gt := []Event{{Label: "B", Start: 0.9, End: 2.3}}
		res, err := a.Analyze(context.Background(), scenarioInput(), gt)
		require.NoError(t, err)
		assert.Equal(t, Counts{Substitution: 1}, res.Counts)
	})

	t.Run("no ground truth leaves detection not-applicable", func(t *testing.T) {
		t.Parallel()
		res, err := a.Analyze(context.Background(), scenarioInput(), nil)
		require.NoError(t, err)
		assert.Equal(t, Counts{Insertion: 1}, res.Counts)
		assert.False(t, res.Metrics.DetectionRatio.IsApplicable())
	})
}

func TestAnalyzeIncludeList(t *testing.T) {
	t.Parallel()

	classifier := windowClassifier([][]float64{{0.9}, {0.9}})

	t.Run("nil include populates everything", func(t *testing.T) {
		t.Parallel()
		a, err := NewAnalyzer(classifier, identityFilter, nil, scenarioOptions())
		require.NoError(t, err)
		res, err := a.Analyze(context.Background(), [][]float64{{0}, {0}}, nil)
		require.NoError(t, err)
		assert.NotNil(t, res.Probas)
		assert.NotNil(t, res.Stats)
		assert.NotNil(t, res.Interpolated)
		assert.NotNil(t, res.Smoothed)
		assert.NotNil(t, res.Thresholded)
	})

	t.Run("allow-list gates optional fields but not metrics", func(t *testing.T) {
		t.Parallel()
		opts := scenarioOptions()
		opts.Include = []Field{FieldEvents}
		a, err := NewAnalyzer(classifier, identityFilter, nil, opts)
		require.NoError(t, err)
		res, err := a.Analyze(context.Background(), [][]float64{{0}, {0}}, nil)
		require.NoError(t, err)
		assert.Nil(t, res.Probas)
		assert.Nil(t, res.Stats)
		assert.Nil(t, res.Interpolated)
		assert.Nil(t, res.Smoothed)
		assert.Nil(t, res.Thresholded)
		assert.NotNil(t, res.Events)
		// Always computed regardless of the allow-list.
		assert.NotNil(t, res.Outcome)
		assert.True(t, res.Metrics.Reliability.IsApplicable())
	})
}

func TestAnalyzeValidation(t *testing.T) {
	t.Parallel()

	classifier := windowClassifier([][]float64{{0.9}})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		a, err := NewAnalyzer(classifier, identityFilter, nil, scenarioOptions())
		require.NoError(t, err)
		_, err = a.Analyze(context.Background(), nil, nil)
		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("ragged input window", func(t *testing.T) {
		t.Parallel()
		a, err := NewAnalyzer(classifier, identityFilter, nil, scenarioOptions())
		require.NoError(t, err)
		_, err = a.Analyze(context.Background(), [][]float64{{}}, nil)
		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr)
	})

	t.Run("missing collaborators", func(t *testing.T) {
		t.Parallel()
		_, err := NewAnalyzer(nil, identityFilter, nil, scenarioOptions())
		assert.Error(t, err)
		_, err = NewAnalyzer(classifier, nil, nil, scenarioOptions())
		assert.Error(t, err)
	})

	t.Run("bad options rejected up front", func(t *testing.T) {
		t.Parallel()
		opts := scenarioOptions()
		opts.IoUThreshold = 1.5
		_, err := NewAnalyzer(classifier, identityFilter, nil, opts)
		var valErr *ValidationError
		assert.ErrorAs(t, err, &valErr)
	})
}

func TestAnalyzeMany(t *testing.T) {
	t.Parallel()

	good := windowClassifier([][]float64{{0.1}, {0.9}, {0.9}, {0.9}, {0.1}})

	t.Run("results keyed by instance ID", func(t *testing.T) {
		t.Parallel()
		a, err := NewAnalyzer(good, identityFilter, nil, scenarioOptions())
		require.NoError(t, err)

		instances := make([]Instance, 6)
		for i := range instances {
			instances[i] = Instance{
				ID:          fmt.Sprintf("rec-%02d", i),
				Input:       scenarioInput(),
				GroundTruth: []Event{{Label: "A", Start: 0.9, End: 2.3}},
			}
		}
		batch := a.AnalyzeMany(context.Background(), instances, 3)
		assert.Empty(t, batch.Failures)
		require.Len(t, batch.Results, 6)
		assert.Equal(t, []string{"rec-00", "rec-01", "rec-02", "rec-03", "rec-04", "rec-05"}, batch.IDs())
		assert.Equal(t, Counts{Correct: 6}, batch.TotalCounts())
	})

	t.Run("one failing instance is recorded and skipped", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("flaky model")
		flaky := ClassifierFunc(func(_ context.Context, input [][]float64) ([][]float64, error) {
			if input[0][0] < 0 { // the poisoned instance
				return nil, boom
			}
			return [][]float64{{0.1}, {0.9}, {0.9}, {0.9}, {0.1}}, nil
		})
		a, err := NewAnalyzer(flaky, identityFilter, nil, scenarioOptions())
		require.NoError(t, err)

		poisoned := scenarioInput()
		poisoned[0] = []float64{-1}
		instances := []Instance{
			{ID: "bad", Input: poisoned},
			{ID: "ok", Input: scenarioInput()},
		}
		batch := a.AnalyzeMany(context.Background(), instances, 2)
		require.Len(t, batch.Failures, 1)
		assert.ErrorIs(t, batch.Failures["bad"], boom)
		assert.Contains(t, batch.Results, "ok")
	})
}

// splitTransform fakes a windowing transform: it slices the raw first
// channel into fixed-size windows.
type splitTransform struct{ win int }

func (s splitTransform) Apply(raw [][]float64) ([][]float64, error) {
	if len(raw) == 0 {
		return nil, errors.New("no channels")
	}
	signal := raw[0]
	var out [][]float64
	for i := 0; i+s.win <= len(signal); i += s.win {
		out = append(out, signal[i:i+s.win])
	}
	return out, nil
}

func TestAnalyzeBatch(t *testing.T) {
	t.Parallel()

	good := windowClassifier([][]float64{{0.1}, {0.9}, {0.9}, {0.9}, {0.1}})
	a, err := NewAnalyzer(good, identityFilter, nil, scenarioOptions())
	require.NoError(t, err)

	t.Run("transform feeds the pipeline", func(t *testing.T) {
		t.Parallel()
		raw := []RawInstance{{ID: "x", Raw: [][]float64{make([]float64, 10)}}}
		batch := a.AnalyzeBatch(context.Background(), splitTransform{win: 2}, raw, 1)
		assert.Empty(t, batch.Failures)
		assert.Contains(t, batch.Results, "x")
	})

	t.Run("transform failure recorded per instance", func(t *testing.T) {
		t.Parallel()
		raw := []RawInstance{
			{ID: "broken", Raw: nil},
			{ID: "fine", Raw: [][]float64{make([]float64, 10)}},
		}
		batch := a.AnalyzeBatch(context.Background(), splitTransform{win: 2}, raw, 2)
		assert.Contains(t, batch.Failures, "broken")
		assert.Contains(t, batch.Results, "fine")
	})
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	valid := DefaultOptions(100, 1.0, 0.5, []string{"A"})
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero sample rate", func(o *Options) { o.SampleRate = 0 }},
		{"negative window", func(o *Options) { o.WindowSize = -1 }},
		{"overlap of one", func(o *Options) { o.Overlap = 1 }},
		{"zero repeats", func(o *Options) { o.Repeats = 0 }},
		{"zero IoU threshold", func(o *Options) { o.IoUThreshold = 0 }},
		{"negative duration", func(o *Options) { o.MinDuration = -0.1 }},
		{"no classes", func(o *Options) { o.ClassNames = nil }},
		{"bogus anchor", func(o *Options) { o.Anchor = Anchor(42) }},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opts := valid
			tc.mutate(&opts)
			var valErr *ValidationError
			assert.ErrorAs(t, opts.Validate(), &valErr)
		})
	}
}
