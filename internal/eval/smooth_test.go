package eval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityFilter(signal []float64, _ int) ([]float64, error) {
	return append([]float64(nil), signal...), nil
}

func TestSmoothCurve(t *testing.T) {
	t.Parallel()

	names := []string{"A", "B"}

	t.Run("filter applied per class", func(t *testing.T) {
		t.Parallel()
		c := &Curve{SampleRate: 10, Values: [][]float64{{1, 2, 3}, {4, 5, 6}}}
		halve := func(signal []float64, _ int) ([]float64, error) {
			out := make([]float64, len(signal))
			for i, v := range signal {
				out[i] = v / 2
			}
			return out, nil
		}
		smoothed, err := SmoothCurve(c, halve, names)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 1, 1.5}, smoothed.Values[0])
		assert.Equal(t, []float64{2, 2.5, 3}, smoothed.Values[1])
		// Original untouched.
		assert.Equal(t, []float64{1, 2, 3}, c.Values[0])
	})

	t.Run("filter error becomes FilterError with class name", func(t *testing.T) {
		t.Parallel()
		c := &Curve{SampleRate: 10, Values: [][]float64{{1}, {2}}}
		boom := errors.New("unstable")
		calls := 0
		failSecond := func(signal []float64, _ int) ([]float64, error) {
			calls++
			if calls == 2 {
				return nil, boom
			}
			return signal, nil
		}
		_, err := SmoothCurve(c, failSecond, names)
		var fErr *FilterError
		require.ErrorAs(t, err, &fErr)
		assert.Equal(t, "B", fErr.Class)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("length mismatch is a FilterError", func(t *testing.T) {
		t.Parallel()
		c := &Curve{SampleRate: 10, Values: [][]float64{{1, 2, 3}}}
		truncate := func(signal []float64, _ int) ([]float64, error) {
			return signal[:1], nil
		}
		_, err := SmoothCurve(c, truncate, names)
		var fErr *FilterError
		require.ErrorAs(t, err, &fErr)
		assert.Contains(t, err.Error(), "length changed")
	})

	t.Run("unnamed channels get positional names", func(t *testing.T) {
		t.Parallel()
		c := &Curve{SampleRate: 10, Values: [][]float64{{1}, {2}, {3}}}
		boom := errors.New("nope")
		failThird := func(signal []float64, _ int) ([]float64, error) {
			if len(signal) > 0 && signal[0] == 3 {
				return nil, boom
			}
			return signal, nil
		}
		_, err := SmoothCurve(c, failThird, names)
		var fErr *FilterError
		require.ErrorAs(t, err, &fErr)
		assert.Equal(t, "class_2", fErr.Class)
	})
}
