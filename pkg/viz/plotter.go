// Package viz renders experiment results as PNG charts.
package viz

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Plotter renders charts with fixed dimensions.
type Plotter struct {
	Width  vg.Length
	Height vg.Length
}

// NewPlotter returns a plotter with the standard 8x5 inch canvas.
func NewPlotter() *Plotter {
	return &Plotter{
		Width:  8 * vg.Inch,
		Height: 5 * vg.Inch,
	}
}

// BarChart renders one bar per label and writes a PNG to path.
func (p *Plotter) BarChart(labels []string, values []float64, title, xlabel, ylabel, path string) error {
	if len(labels) == 0 || len(labels) != len(values) {
		return errors.WithFields(
			errors.New(errors.InvalidParameter, "labels and values must be non-empty and equal length"),
			errors.Fields{"labels": len(labels), "values": len(values)})
	}

	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = xlabel
	plt.Y.Label.Text = ylabel

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(40))
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to build bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	plt.Add(bars)
	plt.NominalX(labels...)

	return p.save(plt, path)
}

// LineChart renders a single series and writes a PNG to path.
func (p *Plotter) LineChart(xs, ys []float64, title, xlabel, ylabel, path string) error {
	if len(xs) == 0 || len(xs) != len(ys) {
		return errors.WithFields(
			errors.New(errors.InvalidParameter, "xs and ys must be non-empty and equal length"),
			errors.Fields{"xs": len(xs), "ys": len(ys)})
	}

	plt := plot.New()
	plt.Title.Text = title
	plt.X.Label.Text = xlabel
	plt.Y.Label.Text = ylabel

	points := make(plotter.XYs, len(xs))
	for i := range xs {
		points[i].X = xs[i]
		points[i].Y = ys[i]
	}

	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to build line chart")
	}
	plt.Add(line, scatter)

	return p.save(plt, path)
}

func (p *Plotter) save(plt *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WithFields(
				errors.Wrap(err, errors.Unknown, "failed to create output directory"),
				errors.Fields{"dir": dir})
		}
	}
	if err := plt.Save(p.Width, p.Height, path); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, fmt.Sprintf("failed to save chart to %s", path)),
			errors.Fields{"path": path})
	}
	return nil
}
