package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/vjranagit/engagesim/pkg/types"
)

var (
	actualColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	forecastColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	bandColor     = color.RGBA{R: 255, G: 127, B: 14, A: 60}
)

// ChartPath returns the file RenderCharts writes for a result
func ChartPath(dir string, res types.EvaluationResult) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", res.Variant, res.Metric))
}

// RenderCharts writes one PNG per successful result: the actual test
// window, the dashed forecast and its shaded interval. It returns the
// written paths.
func RenderCharts(dir string, report types.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var paths []string
	for _, res := range report.Results {
		if res.Failed() || res.Compared == 0 {
			continue
		}
		p, err := chart(res, report.Confidence)
		if err != nil {
			return paths, fmt.Errorf("failed to plot %s/%s: %w", res.Variant, res.Metric, err)
		}
		path := ChartPath(dir, res)
		if err := p.Save(15*vg.Inch, 6*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func chart(res types.EvaluationResult, confidence float64) (*plot.Plot, error) {
	var actual, estimate, lower, upper plotter.XYs
	for _, c := range res.Comparisons {
		x := float64(c.Timestamp.Unix())
		actual = append(actual, plotter.XY{X: x, Y: c.Actual})
		if !c.HasForecast {
			continue
		}
		estimate = append(estimate, plotter.XY{X: x, Y: c.Estimate})
		lower = append(lower, plotter.XY{X: x, Y: c.Lower})
		upper = append(upper, plotter.XY{X: x, Y: c.Upper})
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s forecast vs actual (MAE %.2f, RMSE %.2f)", res.Variant, res.Metric, res.MAE, res.RMSE)
	p.X.Label.Text = "Time"
	p.Y.Label.Text = string(res.Metric)
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02 15:04"}
	p.Add(plotter.NewGrid())

	// band outline: lower bound forward, upper bound back
	outline := make(plotter.XYs, 0, 2*len(lower))
	outline = append(outline, lower...)
	for i := len(upper) - 1; i >= 0; i-- {
		outline = append(outline, upper[i])
	}
	band, err := plotter.NewPolygon(outline)
	if err != nil {
		return nil, err
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	p.Add(band)

	actualLine, err := plotter.NewLine(actual)
	if err != nil {
		return nil, err
	}
	actualLine.Color = actualColor
	actualLine.Width = vg.Points(1.5)

	forecastLine, err := plotter.NewLine(estimate)
	if err != nil {
		return nil, err
	}
	forecastLine.Color = forecastColor
	forecastLine.Width = vg.Points(1.5)
	forecastLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p.Add(actualLine, forecastLine)
	p.Legend.Add("actual", actualLine)
	p.Legend.Add("forecast", forecastLine)
	p.Legend.Add(fmt.Sprintf("%.0f%% interval", confidence*100), band)
	p.Legend.Top = true
	return p, nil
}
