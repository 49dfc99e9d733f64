package resultdb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiot-group/crossai-eval/internal/eval"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleBatch() *eval.BatchResult {
	return &eval.BatchResult{
		Results: map[string]*eval.Result{
			"rec1.csv": {
				Counts: eval.Counts{Correct: 3, Insertion: 1},
				Metrics: eval.Metrics{
					DetectionRatio: 1,
					Reliability:    0.75,
					ErrorRate:      0.25,
				},
			},
			"rec2.csv": {
				Counts: eval.Counts{},
				Metrics: eval.Metrics{
					DetectionRatio: eval.NotApplicable,
					Reliability:    eval.NotApplicable,
					ErrorRate:      eval.NotApplicable,
				},
			},
		},
		Failures: map[string]error{
			"rec3.csv": errors.New("model unreachable"),
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening an already migrated database must not fail.
	s, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestSaveRunRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	opts := eval.DefaultOptions(100, 1.0, 0.5, []string{"a"})
	runID, err := s.SaveRun("nightly robustness", opts, sampleBatch())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	rows, err := s.RunResults(runID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Ordered by instance ID.
	assert.Equal(t, "rec1.csv", rows[0].InstanceID)
	assert.Equal(t, eval.Counts{Correct: 3, Insertion: 1}, rows[0].Counts)
	assert.Equal(t, eval.Ratio(1), rows[0].DetectionRatio)
	assert.Equal(t, eval.Ratio(0.75), rows[0].Reliability)
	assert.Empty(t, rows[0].Failure)

	// NotApplicable survives the NULL round trip.
	assert.False(t, rows[1].DetectionRatio.IsApplicable())
	assert.False(t, rows[1].Reliability.IsApplicable())
	assert.False(t, rows[1].ErrorRate.IsApplicable())

	// The failed instance stores its error and zeroed counts.
	assert.Equal(t, "rec3.csv", rows[2].InstanceID)
	assert.Equal(t, "model unreachable", rows[2].Failure)
	assert.Equal(t, eval.Counts{}, rows[2].Counts)
}

func TestSaveRunDistinctIDs(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	opts := eval.DefaultOptions(100, 1.0, 0.5, []string{"a"})

	first, err := s.SaveRun("run one", opts, sampleBatch())
	require.NoError(t, err)
	second, err := s.SaveRun("run two", opts, sampleBatch())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	rows, err := s.RunResults(first)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRunResultsUnknownRun(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	rows, err := s.RunResults("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
