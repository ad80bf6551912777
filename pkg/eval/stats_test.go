package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

func TestSummarizeEmptyInput(t *testing.T) {
	_, err := Summarize(nil)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))
}

func TestSummarizeSingleValue(t *testing.T) {
	for _, x := range []float64{0.0, 0.5, 1.0, -3.2, 42.0} {
		stats, err := Summarize([]float64{x})
		require.NoError(t, err)

		assert.Equal(t, x, stats.Mean)
		assert.Equal(t, 0.0, stats.Std)
		assert.Equal(t, 1, stats.Count)
		assert.Equal(t, [2]float64{x, x}, stats.ConfidenceInterval95)
	}
}

// [1,2,3,4,5] has mean 3.0, sample std ~1.58, and a CI
// strictly containing the mean.
func TestSummarizeExample(t *testing.T) {
	stats, err := Summarize([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 3.0, stats.Mean)
	assert.InDelta(t, 1.5811, stats.Std, 0.001)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 5.0, stats.Max)
	assert.Equal(t, 5, stats.Count)

	lo, hi := stats.ConfidenceInterval95[0], stats.ConfidenceInterval95[1]
	assert.Less(t, lo, 3.0)
	assert.Greater(t, hi, 3.0)

	margin := 1.96 * stats.Std / math.Sqrt(5)
	assert.InDelta(t, 3.0-margin, lo, 1e-9)
	assert.InDelta(t, 3.0+margin, hi, 1e-9)
}

func TestSummarizeZeroVariance(t *testing.T) {
	stats, err := Summarize([]float64{0.7, 0.7, 0.7})
	require.NoError(t, err)

	assert.Equal(t, 0.7, stats.Mean)
	assert.Equal(t, 0.0, stats.Std)
	assert.Equal(t, [2]float64{0.7, 0.7}, stats.ConfidenceInterval95)
}

func TestStatisticsToMap(t *testing.T) {
	stats, err := Summarize([]float64{1, 2})
	require.NoError(t, err)

	m := stats.ToMap()
	assert.Equal(t, 1.5, m["mean"])
	assert.Equal(t, 2, m["count"])
	ci, ok := m["ci_95"].([]float64)
	require.True(t, ok)
	assert.Len(t, ci, 2)
}
