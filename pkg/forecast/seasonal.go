package forecast

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vjranagit/engagesim/pkg/types"
)

// DefaultTrendHours is the trailing window the model is fitted on
const DefaultTrendHours = 72

const backfitIterations = 25

// SeasonalTrend forecasts with a least-squares linear trend plus
// hour-of-day seasonal offsets.
//
// Algorithm:
//  1. Backfit y = alpha + beta*t + s[hour(t)] on the trailing TrendHours of
//     history: alternate a least-squares trend on y-s with centered
//     hour-of-day means of the trend residuals
//  2. sigma = standard deviation of the remaining residuals
//  3. yhat = alpha + beta*t + s[hour(t)], bounds yhat -/+ z*sigma*sqrt(1+k/n)
//     where z is the normal quantile for the confidence level and k the
//     step ahead
type SeasonalTrend struct {
	// TrendHours limits the trend fit to the most recent hours; zero fits
	// the full history.
	TrendHours int
}

// NewSeasonalTrend creates a model with the default trend window
func NewSeasonalTrend() *SeasonalTrend {
	return &SeasonalTrend{TrendHours: DefaultTrendHours}
}

// FitAndForecast implements Forecaster
func (m *SeasonalTrend) FitAndForecast(ctx context.Context, history []Observation, horizonHours int, confidence float64) ([]types.ForecastPoint, error) {
	if err := validateRequest(history, horizonHours, confidence); err != nil {
		return nil, err
	}
	for _, o := range history {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return nil, ErrDegenerateHistory
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin := history[0].Timestamp
	hoursSince := func(ts time.Time) float64 {
		return ts.Sub(origin).Hours()
	}

	recent := history
	if m.TrendHours > 1 && len(history) > m.TrendHours {
		recent = history[len(history)-m.TrendHours:]
	}
	xs := make([]float64, len(recent))
	ys := make([]float64, len(recent))
	hours := make([]int, len(recent))
	for i, o := range recent {
		xs[i] = hoursSince(o.Timestamp)
		ys[i] = o.Value
		hours[i] = o.Timestamp.Hour()
	}

	var alpha, beta float64
	var season [24]float64
	adjusted := make([]float64, len(recent))
	residuals := make([]float64, len(recent))
	for iter := 0; iter < backfitIterations; iter++ {
		for i := range ys {
			adjusted[i] = ys[i] - season[hours[i]]
		}
		alpha, beta = stat.LinearRegression(xs, adjusted, nil, false)

		var sums, counts [24]float64
		for i := range ys {
			residuals[i] = ys[i] - (alpha + beta*xs[i])
			sums[hours[i]] += residuals[i]
			counts[hours[i]]++
		}
		level, seen := 0.0, 0.0
		for h := range season {
			season[h] = 0
			if counts[h] > 0 {
				season[h] = sums[h] / counts[h]
				level += sums[h]
				seen += counts[h]
			}
		}
		for h := range season {
			if counts[h] > 0 {
				season[h] -= level / seen
			}
		}
	}
	trend := func(x float64) float64 { return alpha + beta*x }

	for i := range ys {
		residuals[i] = ys[i] - trend(xs[i]) - season[hours[i]]
	}
	sigma := stat.StdDev(residuals, nil)
	if math.IsNaN(sigma) {
		sigma = 0
	}
	z := distuv.UnitNormal.Quantile(0.5 + confidence/2)
	n := float64(len(recent))

	last := history[len(history)-1].Timestamp
	out := make([]types.ForecastPoint, horizonHours)
	for k := 1; k <= horizonHours; k++ {
		ts := last.Add(time.Duration(k) * time.Hour)
		est := trend(hoursSince(ts)) + season[ts.Hour()]
		half := z * sigma * math.Sqrt(1+float64(k)/n)
		out[k-1] = types.ForecastPoint{
			Timestamp: ts,
			Estimate:  est,
			Lower:     est - half,
			Upper:     est + half,
		}
	}
	return out, nil
}
