package variant

import (
	"time"

	"github.com/vjranagit/engagesim/pkg/curve"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
)

// Names of the built-in variants
const (
	Noisy            = "noisy"
	DailyCycle       = "daily-cycle"
	RealisticScaling = "realistic-scaling"
	RightSkewed      = "right-skewed"
)

// DefaultDurationHours is the two-week span every built-in simulates
const DefaultDurationHours = 336

// DefaultStart is the publication time used by the built-ins
var DefaultStart = time.Date(2025, 4, 17, 15, 45, 0, 0, time.UTC)

// Builtins returns the built-in variant records
func Builtins() []Variant {
	return []Variant{noisy(), dailyCycle(), realisticScaling(), rightSkewed()}
}

// Default returns a registry holding the built-ins
func Default() *Registry {
	r := NewRegistry()
	for _, v := range Builtins() {
		if err := r.Register(v); err != nil {
			panic(err)
		}
	}
	return r
}

// noisy: one spike per metric with exponential decay and heavy additive
// noise, no daily pattern.
func noisy() Variant {
	ramp := func(m types.Metric, peak, peakHours, decay, noise float64) simulator.Parameters {
		return simulator.Parameters{
			Metric:     m,
			Peak:       peak,
			NoiseLevel: noise,
			Noise:      simulator.NoiseAdditive,
			Floor:      1,
			Lifecycle: curve.Lifecycle{
				Shape:       curve.ShapeRampDecay,
				PeakHours:   peakHours,
				DecayRate:   decay,
				OffsetHours: 0.5,
			},
		}
	}
	return Variant{
		Name:          Noisy,
		Description:   "independent peak-and-decay per metric with additive noise",
		Start:         DefaultStart,
		DurationHours: DefaultDurationHours,
		Metrics: []simulator.Parameters{
			ramp(types.Likes, 500, 4.0, 0.3, 0.15),
			ramp(types.Comments, 150, 3.5, 0.4, 0.2),
			ramp(types.Shares, 200, 5.0, 0.25, 0.25),
		},
	}
}

// dailyCycle: multi-day plateau then slow decay, with per-metric active
// hours. Shares stay active past midnight.
func dailyCycle() Variant {
	plateau := func(m types.Metric, peak, noise float64, window curve.ActiveWindow, days float64) simulator.Parameters {
		return simulator.Parameters{
			Metric:     m,
			Peak:       peak,
			NoiseLevel: noise,
			Noise:      simulator.NoiseAdditive,
			Floor:      1,
			Cycle:      &curve.DailyCycle{Window: window, NightMin: 0.1},
			Lifecycle: curve.Lifecycle{
				Shape:        curve.ShapePlateauDecay,
				PlateauHours: days * 24,
				DecayRate:    1.2, // 0.05 per hour
			},
		}
	}
	return Variant{
		Name:          DailyCycle,
		Description:   "daily activity cycle with a multi-day peak window",
		Start:         DefaultStart,
		DurationHours: DefaultDurationHours,
		Metrics: []simulator.Parameters{
			plateau(types.Likes, 1000, 0.2, curve.ActiveWindow{Start: 9, End: 23}, 3),
			plateau(types.Comments, 300, 0.25, curve.ActiveWindow{Start: 10, End: 22}, 2.5),
			plateau(types.Shares, 400, 0.3, curve.ActiveWindow{Start: 8, End: 1}, 4),
		},
	}
}

// realisticScaling: comments and shares scale from the likes peak, with a
// ramp, a three-day plateau and a gentle decay.
func realisticScaling() Variant {
	const basePeak = 1000
	scaled := func(m types.Metric, ratio, noise float64) simulator.Parameters {
		return simulator.Parameters{
			Metric:     m,
			Peak:       basePeak,
			Scale:      ratio,
			NoiseLevel: noise,
			Noise:      simulator.NoiseMultiplicative,
			Floor:      5,
			Cycle: &curve.DailyCycle{
				Window:      curve.ActiveWindow{Start: 8, End: 23},
				NightMin:    0.2,
				NightJitter: 0.1,
			},
			Lifecycle: curve.Lifecycle{
				Shape:        curve.ShapePlateauDecay,
				RampHours:    3,
				PlateauHours: 72,
				DecayRate:    0.15,
			},
		}
	}
	return Variant{
		Name:          RealisticScaling,
		Description:   "coordinated metrics scaled from likes with a three-phase lifecycle",
		Start:         DefaultStart,
		DurationHours: DefaultDurationHours,
		Metrics: []simulator.Parameters{
			scaled(types.Likes, 1.0, 0.15),
			scaled(types.Comments, 0.3, 0.2),
			scaled(types.Shares, 0.15, 0.25),
		},
	}
}

// rightSkewed: Weibull lifecycle peaking on day 3 with a long tail.
func rightSkewed() Variant {
	skewed := func(m types.Metric, peak, nightMin, noise float64) simulator.Parameters {
		return simulator.Parameters{
			Metric:     m,
			Peak:       peak,
			NoiseLevel: noise,
			Noise:      simulator.NoiseMultiplicative,
			Floor:      3,
			Cycle: &curve.DailyCycle{
				Window:   curve.ActiveWindow{Start: 8, End: 23},
				NightMin: nightMin,
			},
			Lifecycle: curve.Lifecycle{
				Shape:     curve.ShapeWeibull,
				WeibullK:  1.5,
				PeakDay:   3,
				DayOffset: 0.5,
			},
		}
	}
	return Variant{
		Name:          RightSkewed,
		Description:   "right-skewed Weibull engagement peaking around day 3",
		Start:         DefaultStart,
		DurationHours: DefaultDurationHours,
		Metrics: []simulator.Parameters{
			skewed(types.Likes, 800, 0.15, 0.12),
			skewed(types.Comments, 240, 0.10, 0.15),
			skewed(types.Shares, 120, 0.08, 0.18),
		},
	}
}
