package report

import (
	"cmp"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"slices"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/vjranagit/engagesim/pkg/types"
)

var (
	metricColors = map[types.Metric]color.Color{
		types.Likes:    actualColor,
		types.Comments: forecastColor,
		types.Shares:   color.RGBA{R: 44, G: 160, B: 44, A: 255},
	}
	peakColor = color.RGBA{R: 214, G: 39, B: 40, A: 200}
)

// DailyTotal sums one calendar day of a dataset
type DailyTotal struct {
	Day      time.Time `json:"day"`
	Index    int       `json:"index"` // calendar days since the first day
	Hours    int       `json:"hours"`
	Likes    float64   `json:"likes"`
	Comments float64   `json:"comments"`
	Shares   float64   `json:"shares"`
}

// Total is the day's engagement across all metrics
func (d DailyTotal) Total() float64 {
	return d.Likes + d.Comments + d.Shares
}

// Mean returns the hourly average of one metric over the day
func (d DailyTotal) Mean(m types.Metric) float64 {
	if d.Hours == 0 {
		return 0
	}
	var sum float64
	switch m {
	case types.Likes:
		sum = d.Likes
	case types.Comments:
		sum = d.Comments
	case types.Shares:
		sum = d.Shares
	}
	return sum / float64(d.Hours)
}

// DailySummary groups records by calendar day in their own location.
// Partial first and last days are kept with fewer hours.
func DailySummary(records []types.CombinedRecord) []DailyTotal {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b types.CombinedRecord) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	var days []DailyTotal
	for _, r := range sorted {
		ts := r.Timestamp
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		if n := len(days); n == 0 || !days[n-1].Day.Equal(day) {
			index := 0
			if n > 0 {
				index = int(math.Round(day.Sub(days[0].Day).Hours() / 24))
			}
			days = append(days, DailyTotal{Day: day, Index: index})
		}
		d := &days[len(days)-1]
		d.Hours++
		d.Likes += r.Likes
		d.Comments += r.Comments
		d.Shares += r.Shares
	}
	return days
}

// PeakDays returns the n days with the highest total engagement, highest
// first. Ties keep calendar order.
func PeakDays(records []types.CombinedRecord, n int) []DailyTotal {
	if n <= 0 {
		return nil
	}
	days := DailySummary(records)
	slices.SortStableFunc(days, func(a, b DailyTotal) int {
		return cmp.Compare(b.Total(), a.Total())
	})
	return days[:min(n, len(days))]
}

// HourOfDayProfile averages one metric by hour of day
func HourOfDayProfile(records []types.CombinedRecord, m types.Metric) [24]float64 {
	var sums [24]float64
	var counts [24]int
	for _, r := range records {
		v, _ := r.Value(m)
		h := r.Timestamp.Hour()
		sums[h] += v
		counts[h]++
	}
	var profile [24]float64
	for h := range profile {
		if counts[h] > 0 {
			profile[h] = sums[h] / float64(counts[h])
		}
	}
	return profile
}

// TrendChartPath returns the file RenderTrend writes for a dataset
func TrendChartPath(dir, name string) string {
	return filepath.Join(dir, name+"_trend.png")
}

// RenderTrend draws a dataset overview: hourly counts of every metric and,
// below, daily averages with the topN days marked.
func RenderTrend(path, name string, records []types.CombinedRecord, topN int) error {
	if len(records) == 0 {
		return fmt.Errorf("no records for %s", name)
	}

	hourly := plot.New()
	hourly.Title.Text = fmt.Sprintf("%s: hourly engagement", name)
	hourly.Y.Label.Text = "Count"
	hourly.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02"}
	hourly.Add(plotter.NewGrid())

	daily := plot.New()
	daily.Title.Text = "Daily average engagement"
	daily.Y.Label.Text = "Average count"
	daily.X.Tick.Marker = plot.TimeTicks{Format: "Jan 02"}
	daily.Add(plotter.NewGrid())

	days := DailySummary(records)
	var maxMean float64
	for _, m := range types.Metrics {
		series := types.Column(records, m)
		xys := make(plotter.XYs, len(series.Points))
		for i, p := range series.Points {
			xys[i] = plotter.XY{X: float64(p.Timestamp.Unix()), Y: p.Value}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("failed to plot %s: %w", m, err)
		}
		line.Color = metricColors[m]
		hourly.Add(line)
		hourly.Legend.Add(string(m), line)

		means := make(plotter.XYs, len(days))
		for i, d := range days {
			means[i] = plotter.XY{X: float64(d.Day.Unix()), Y: d.Mean(m)}
			maxMean = math.Max(maxMean, means[i].Y)
		}
		meanLine, points, err := plotter.NewLinePoints(means)
		if err != nil {
			return fmt.Errorf("failed to plot daily %s: %w", m, err)
		}
		meanLine.Color = metricColors[m]
		meanLine.Width = vg.Points(2)
		points.Color = metricColors[m]
		daily.Add(meanLine, points)
		daily.Legend.Add(string(m), meanLine, points)
	}

	for i, d := range PeakDays(records, topN) {
		x := float64(d.Day.Unix())
		marker, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: maxMean}})
		if err != nil {
			return err
		}
		marker.Color = peakColor
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		daily.Add(marker)
		if i == 0 {
			daily.Legend.Add(fmt.Sprintf("peak %s", d.Day.Format("Jan 02")), marker)
		}
	}
	hourly.Legend.Top = true
	daily.Legend.Top = true

	return savePanels(path, []*plot.Plot{hourly, daily}, panelWidth, panelHeight)
}
