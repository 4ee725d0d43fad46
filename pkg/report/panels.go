package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/vjranagit/engagesim/pkg/types"
)

// CombinedChartName is the file RenderCombined writes inside a report dir
const CombinedChartName = "evaluation.png"

const (
	panelWidth  = 12 * vg.Inch
	panelHeight = 4 * vg.Inch
)

// RenderCombined draws every successful result as one row of a single PNG
// and returns the number of panels. Nothing is written when no result
// succeeded.
func RenderCombined(path string, report types.Report) (int, error) {
	var plots []*plot.Plot
	for _, res := range report.Results {
		if res.Failed() || res.Compared == 0 {
			continue
		}
		p, err := chart(res, report.Confidence)
		if err != nil {
			return 0, fmt.Errorf("failed to plot %s/%s: %w", res.Variant, res.Metric, err)
		}
		plots = append(plots, p)
	}
	if len(plots) == 0 {
		return 0, nil
	}

	if err := savePanels(path, plots, panelWidth, panelHeight); err != nil {
		return 0, err
	}
	return len(plots), nil
}

// savePanels stacks plots vertically with aligned axes
func savePanels(path string, plots []*plot.Plot, width, height vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	img := vgimg.New(width, height*vg.Length(len(plots)))
	dc := draw.New(img)

	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
		PadY:      vg.Points(16),
	}
	canvases := plot.Align(rows, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
