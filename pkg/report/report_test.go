package report

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/engagesim/pkg/composer"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
	"github.com/vjranagit/engagesim/pkg/variant"
)

func sampleReport() types.Report {
	start := time.Date(2025, 4, 24, 15, 45, 0, 0, time.UTC)
	ok := types.EvaluationResult{
		RunID:    "run",
		Variant:  "noisy",
		Metric:   types.Likes,
		MAE:      3.25,
		RMSE:     4.5,
		Coverage: 0.875,
		Compared: 8,
	}
	for i := 0; i < 8; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		ok.Comparisons = append(ok.Comparisons, types.Comparison{
			Timestamp:   ts,
			Actual:      float64(40 - i),
			HasForecast: true,
			Estimate:    float64(38 - i),
			Lower:       float64(30 - i),
			Upper:       float64(46 - i),
		})
	}
	failed := types.EvaluationResult{
		RunID:   "run",
		Variant: "daily-cycle",
		Metric:  types.Shares,
		Error:   "forecast daily-cycle/shares: fit diverged",
	}
	return types.Report{RunID: "run", Confidence: 0.95, Results: []types.EvaluationResult{ok, failed}}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "noisy")
	assert.Contains(t, out, "3.25")
	assert.Contains(t, out, "87.5%")
	assert.Contains(t, out, "failed: forecast daily-cycle/shares: fit diverged")
	assert.True(t, strings.Index(out, "noisy") < strings.Index(out, "daily-cycle"))
}

func TestRenderChartsSkipsFailures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	report := sampleReport()

	paths, err := RenderCharts(dir, report)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ChartPath(dir, report.Results[0]), paths[0])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	_, err = os.Stat(ChartPath(dir, report.Results[1]))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderCombinedOnePanelPerResult(t *testing.T) {
	report := sampleReport()
	second := report.Results[0]
	second.Variant = "right-skewed"
	report.Results = append(report.Results, second)

	path := filepath.Join(t.TempDir(), "out", CombinedChartName)
	panels, err := RenderCombined(path, report)
	require.NoError(t, err)
	assert.Equal(t, 2, panels)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.DecodeConfig(f)
	require.NoError(t, err)

	// 96 dpi: 12in wide, 4in per panel
	assert.Equal(t, 1152, img.Width)
	assert.Equal(t, 2*384, img.Height)
}

func TestRenderCombinedWithoutSuccesses(t *testing.T) {
	report := sampleReport()
	report.Results = report.Results[1:]

	path := filepath.Join(t.TempDir(), CombinedChartName)
	panels, err := RenderCombined(path, report)
	require.NoError(t, err)
	assert.Zero(t, panels)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

// expectedRecords builds the noise-free dataset of a built-in variant
func expectedRecords(t *testing.T, name string) (variant.Variant, []types.CombinedRecord) {
	t.Helper()
	v, err := variant.Default().Get(name)
	require.NoError(t, err)

	series := make([]types.EngagementSeries, 0, len(v.Metrics))
	for _, p := range v.Metrics {
		series = append(series, types.EngagementSeries{
			Metric: p.Metric,
			Points: simulator.Expected(v.Start, v.DurationHours, p),
		})
	}
	records, err := composer.Zip(series...)
	require.NoError(t, err)
	return v, records
}

func TestDailySummaryCalendarDays(t *testing.T) {
	_, records := expectedRecords(t, variant.RightSkewed)

	days := DailySummary(records)
	require.Len(t, days, 15)

	// 15:45 start: 9 hours on the first day, 15 on the last
	assert.Equal(t, 9, days[0].Hours)
	assert.Equal(t, 15, days[14].Hours)
	assert.Equal(t, 14, days[14].Index)

	hours := 0
	var likes float64
	for _, d := range days {
		hours += d.Hours
		likes += d.Likes
	}
	assert.Equal(t, len(records), hours)

	var want float64
	for _, r := range records {
		want += r.Likes
	}
	assert.InDelta(t, want, likes, 1e-6)
}

func TestPeakDaysRightSkewed(t *testing.T) {
	v, records := expectedRecords(t, variant.RightSkewed)
	likes, ok := v.Parameters(types.Likes)
	require.True(t, ok)

	top := PeakDays(records, 3)
	require.Len(t, top, 3)
	assert.Equal(t, int(likes.Lifecycle.PeakDay), top[0].Index)
	assert.GreaterOrEqual(t, top[0].Total(), top[1].Total())
	assert.GreaterOrEqual(t, top[1].Total(), top[2].Total())

	// the density mode falls inside the top day
	mode := v.Start.Add(time.Duration(likes.Lifecycle.PeakDay * 24 * float64(time.Hour)))
	assert.False(t, mode.Before(top[0].Day))
	assert.True(t, mode.Before(top[0].Day.Add(24*time.Hour)))

	for _, d := range top[1:] {
		assert.InDelta(t, top[0].Index, d.Index, 1)
	}

	assert.Nil(t, PeakDays(records, 0))
	assert.Len(t, PeakDays(records, 100), 15)
}

func TestHourOfDayProfilePeaksMidWindow(t *testing.T) {
	_, records := expectedRecords(t, variant.RightSkewed)
	profile := HourOfDayProfile(records, types.Likes)

	peak := 0
	for h := range profile {
		if profile[h] > profile[peak] {
			peak = h
		}
	}
	// active window 8-23 has its midpoint at 15:30
	assert.Contains(t, []int{15, 16}, peak)
	assert.Less(t, profile[3], profile[8])
	assert.Less(t, profile[8], profile[peak])
}

func TestRenderTrend(t *testing.T) {
	v, err := variant.Default().Get(variant.DailyCycle)
	require.NoError(t, err)
	records, err := v.Generate(simulator.Seeded(9))
	require.NoError(t, err)

	dir := t.TempDir()
	path := TrendChartPath(dir, v.Name)
	require.NoError(t, RenderTrend(path, v.Name, records, 3))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	assert.Error(t, RenderTrend(filepath.Join(dir, "empty.png"), "empty", nil, 3))
}
