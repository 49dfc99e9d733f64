package eval

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchEvents(t *testing.T) {
	t.Parallel()

	t.Run("matching interval and class is correct", func(t *testing.T) {
		t.Parallel()
		pred := []Event{{Label: "A", Start: 1.0, End: 3.0}}
		gt := []Event{{Label: "A", Start: 1.2, End: 2.8}}
		out := MatchEvents(pred, gt, 0.5, MatchAllClasses)
		require.Len(t, out.Correct, 1)
		assert.InDelta(t, 1.6/2.2, out.Correct[0].IoU, 1e-12)
		assert.Empty(t, out.Substitutions)
		assert.Empty(t, out.Deletions)
		assert.Empty(t, out.Insertions)
	})

	t.Run("matching interval with wrong class is substitution", func(t *testing.T) {
		t.Parallel()
		pred := []Event{{Label: "A", Start: 1.0, End: 3.0}}
		gt := []Event{{Label: "B", Start: 1.2, End: 2.8}}
		out := MatchEvents(pred, gt, 0.5, MatchAllClasses)
		require.Len(t, out.Substitutions, 1)
		assert.Equal(t, MatchSubstitution, out.Substitutions[0].Kind)
		assert.Empty(t, out.Correct)
		assert.Empty(t, out.Deletions)
		assert.Empty(t, out.Insertions)
	})

	t.Run("below threshold is deletion and prediction stays insertable", func(t *testing.T) {
		t.Parallel()
		pred := []Event{{Label: "A", Start: 0.0, End: 0.5}}
		gt := []Event{{Label: "A", Start: 2.0, End: 3.0}}
		out := MatchEvents(pred, gt, 0.5, MatchAllClasses)
		assert.Len(t, out.Deletions, 1)
		assert.Len(t, out.Insertions, 1)
	})

	t.Run("empty predictions make every ground truth a deletion", func(t *testing.T) {
		t.Parallel()
		gt := []Event{{Label: "A", Start: 0, End: 1}, {Label: "B", Start: 2, End: 3}}
		out := MatchEvents(nil, gt, 0.5, MatchAllClasses)
		assert.Len(t, out.Deletions, 2)
		assert.Empty(t, out.Correct)
		assert.Empty(t, out.Substitutions)
		assert.Empty(t, out.Insertions)
	})

	t.Run("empty ground truth makes every prediction an insertion", func(t *testing.T) {
		t.Parallel()
		pred := []Event{{Label: "A", Start: 0, End: 1}, {Label: "A", Start: 2, End: 3}}
		out := MatchEvents(pred, nil, 0.5, MatchAllClasses)
		assert.Len(t, out.Insertions, 2)
		assert.Empty(t, out.Deletions)
	})

	t.Run("consumed prediction cannot match twice", func(t *testing.T) {
		t.Parallel()
		pred := []Event{{Label: "A", Start: 0, End: 2}}
		gt := []Event{
			{Label: "A", Start: 0, End: 2},
			{Label: "A", Start: 0.2, End: 1.8},
		}
		out := MatchEvents(pred, gt, 0.5, MatchAllClasses)
		assert.Len(t, out.Correct, 1)
		assert.Len(t, out.Deletions, 1)
		assert.Empty(t, out.Insertions)
	})

	t.Run("tie on IoU prefers earliest start", func(t *testing.T) {
		t.Parallel()
		// Both predictions overlap the ground truth identically.
		pred := []Event{
			{Label: "A", Start: 1.5, End: 2.5},
			{Label: "A", Start: 0.5, End: 1.5},
		}
		gt := []Event{{Label: "A", Start: 0.5, End: 2.5}}
		out := MatchEvents(pred, gt, 0.4, MatchAllClasses)
		require.Len(t, out.Correct, 1)
		assert.Equal(t, 0.5, out.Correct[0].Predicted.Start)
	})

	t.Run("same-class scope never substitutes", func(t *testing.T) {
		t.Parallel()
		pred := []Event{{Label: "B", Start: 1.0, End: 3.0}}
		gt := []Event{{Label: "A", Start: 1.2, End: 2.8}}
		out := MatchEvents(pred, gt, 0.5, MatchSameClass)
		assert.Len(t, out.Deletions, 1)
		assert.Len(t, out.Insertions, 1)
		assert.Empty(t, out.Substitutions)
	})

	t.Run("deterministic across reruns", func(t *testing.T) {
		t.Parallel()
		pred := []Event{
			{Label: "A", Start: 0.0, End: 1.0},
			{Label: "B", Start: 0.9, End: 2.1},
			{Label: "A", Start: 2.0, End: 3.0},
		}
		gt := []Event{
			{Label: "A", Start: 0.1, End: 1.1},
			{Label: "A", Start: 1.9, End: 3.1},
		}
		first := MatchEvents(pred, gt, 0.5, MatchAllClasses)
		for i := 0; i < 10; i++ {
			again := MatchEvents(pred, gt, 0.5, MatchAllClasses)
			assert.Empty(t, cmp.Diff(first, again))
		}
	})
}

// TestMatchAccounting checks the exact-once invariant: every ground
// truth lands in exactly one of correct/substitution/deletion, every
// prediction in exactly one of correct/substitution/insertion.
func TestMatchAccounting(t *testing.T) {
	t.Parallel()

	pred := []Event{
		{Label: "A", Start: 0.0, End: 1.0},
		{Label: "B", Start: 1.5, End: 2.0},
		{Label: "A", Start: 5.0, End: 6.0},
		{Label: "B", Start: 7.0, End: 7.2},
	}
	gt := []Event{
		{Label: "A", Start: 0.1, End: 1.1},
		{Label: "A", Start: 1.4, End: 2.1},
		{Label: "B", Start: 9.0, End: 10.0},
	}
	out := MatchEvents(pred, gt, 0.3, MatchAllClasses)
	c := out.Counts()

	assert.Equal(t, len(gt), c.Correct+c.Substitution+c.Deletion)
	assert.Equal(t, len(pred), c.Correct+c.Substitution+c.Insertion)
}

func TestOutcomeCounts(t *testing.T) {
	t.Parallel()

	out := &Outcome{
		Correct:       make([]Match, 3),
		Substitutions: make([]Match, 1),
		Deletions:     make([]Event, 2),
		Insertions:    make([]Event, 4),
	}
	assert.Equal(t, Counts{Correct: 3, Substitution: 1, Deletion: 2, Insertion: 4}, out.Counts())
}
