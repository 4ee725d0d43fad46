package curve

import (
	"fmt"
	"math"
)

const (
	// ActiveFloor is the multiplier at the edges of the active window.
	ActiveFloor = 0.7
	// ActiveAmplitude lifts the window midpoint to ActiveFloor+ActiveAmplitude.
	ActiveAmplitude = 0.3
	// DefaultNightJitter is the width of the out-of-window band.
	DefaultNightJitter = 0.2
)

// Source supplies uniform draws in [0, 1)
type Source interface {
	Float64() float64
}

// ActiveWindow is an inclusive hour-of-day range
type ActiveWindow struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Validate checks both bounds are hours of the day
func (w ActiveWindow) Validate() error {
	if w.Start < 0 || w.Start > 23 || w.End < 0 || w.End > 23 {
		return fmt.Errorf("active window (%d, %d) must use hours 0-23", w.Start, w.End)
	}
	return nil
}

// Wraps reports whether the window crosses midnight
func (w ActiveWindow) Wraps() bool {
	return w.End < w.Start
}

// Span returns the number of hours from Start to End
func (w ActiveWindow) Span() int {
	return mod24(w.End - w.Start)
}

// Contains reports whether hour falls inside the window
func (w ActiveWindow) Contains(hour int) bool {
	return mod24(hour-w.Start) <= w.Span()
}

// DailyCycle describes the hour-of-day engagement pattern
type DailyCycle struct {
	Window      ActiveWindow `json:"window" yaml:"window"`
	NightMin    float64      `json:"night_min" yaml:"night_min"`
	NightJitter float64      `json:"night_jitter" yaml:"night_jitter"`
}

// Validate checks the window and the night band
func (c DailyCycle) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return err
	}
	if c.NightMin < 0 || c.NightJitter < 0 {
		return fmt.Errorf("night band must be non-negative")
	}
	if c.NightMin+c.jitter() > 1 {
		return fmt.Errorf("night band [%g, %g] exceeds 1", c.NightMin, c.NightMin+c.jitter())
	}
	return nil
}

func (c DailyCycle) jitter() float64 {
	if c.NightJitter == 0 {
		return DefaultNightJitter
	}
	return c.NightJitter
}

// Multiplier returns the daily factor for hourOfDay. Out-of-window hours
// draw an independent value from src on every call.
func (c DailyCycle) Multiplier(hourOfDay int, src Source) float64 {
	if c.Window.Contains(hourOfDay) {
		return c.active(hourOfDay)
	}
	return c.NightMin + c.jitter()*src.Float64()
}

// Expected is Multiplier with the night draw replaced by its mean
func (c DailyCycle) Expected(hourOfDay int) float64 {
	if c.Window.Contains(hourOfDay) {
		return c.active(hourOfDay)
	}
	return c.NightMin + c.jitter()/2
}

func (c DailyCycle) active(hourOfDay int) float64 {
	span := c.Window.Span()
	if span == 0 {
		return ActiveFloor + ActiveAmplitude
	}
	pos := float64(mod24(hourOfDay - c.Window.Start))
	return ActiveFloor + ActiveAmplitude*math.Sin(math.Pi*pos/float64(span))
}

func mod24(h int) int {
	return ((h % 24) + 24) % 24
}
