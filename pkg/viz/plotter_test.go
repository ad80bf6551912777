package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

func TestBarChartWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "accuracy.png")

	p := NewPlotter()
	err := p.BarChart(
		[]string{"start", "middle", "end"},
		[]float64{0.9, 0.6, 0.8},
		"Accuracy by Position", "Position", "Accuracy", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLineChartWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latency.png")

	p := NewPlotter()
	err := p.LineChart(
		[]float64{1, 2, 5, 10},
		[]float64{100, 150, 300, 700},
		"Latency by Context Size", "Documents", "Latency (ms)", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestChartInputValidation(t *testing.T) {
	p := NewPlotter()
	path := filepath.Join(t.TempDir(), "bad.png")

	err := p.BarChart([]string{"a"}, []float64{1, 2}, "", "", "", path)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))

	err = p.LineChart(nil, nil, "", "", "", path)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))

	assert.NoFileExists(t, path)
}
