package util

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotSweep draws every V(...) series against results[xKey] and saves the
// figure to path. The image format follows the file extension.
func PlotSweep(results map[string][]float64, xKey, title, path string) error {
	xs, ok := results[xKey]
	if !ok {
		return fmt.Errorf("no %s column in results", xKey)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xKey
	p.Y.Label.Text = "Voltage (V)"
	p.Add(plotter.NewGrid())

	for i, key := range ResultKeys(results, "V(") {
		ys := results[key]
		if len(ys) != len(xs) {
			return fmt.Errorf("%s has %d points, %s has %d", key, len(ys), xKey, len(xs))
		}
		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j].X = xs[j]
			pts[j].Y = ys[j]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(key, line)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
