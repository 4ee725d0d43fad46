package curve

import (
	"fmt"
	"math"
	"strings"
)

// Shape selects the lifecycle curve
type Shape int

const (
	ShapeRampDecay Shape = iota + 1
	ShapePlateauDecay
	ShapeWeibull
)

var shapeNames = map[Shape]string{
	ShapeRampDecay:    "ramp-decay",
	ShapePlateauDecay: "plateau-decay",
	ShapeWeibull:      "weibull",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape converts a shape name into a Shape
func ParseShape(name string) (Shape, error) {
	for s, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown lifecycle shape %q", name)
}

// Lifecycle parameterizes the rise, peak and decay of a post. Only the
// fields of the selected Shape are read.
type Lifecycle struct {
	Shape Shape

	// ramp-decay: quadratic ramp to PeakHours, then exponential decay with
	// DecayRate per hour. OffsetHours shifts the evaluation point.
	PeakHours   float64
	OffsetHours float64

	// plateau-decay: optional ramp over RampHours, 1.0 through PlateauHours,
	// then exponential decay with DecayRate per day.
	RampHours    float64
	PlateauHours float64

	// DecayRate is per hour for ramp-decay and per day for plateau-decay.
	DecayRate float64

	// weibull: shape parameter WeibullK (> 1 for right skew), mode placed at
	// PeakDay elapsed days, evaluated at elapsed days plus DayOffset.
	// Normalization divides the density; zero uses the density at the mode
	// so the peak evaluates to exactly 1.0.
	WeibullK      float64
	PeakDay       float64
	DayOffset     float64
	Normalization float64
}

// Validate checks the parameters of the selected shape
func (l Lifecycle) Validate() error {
	switch l.Shape {
	case ShapeRampDecay:
		if l.PeakHours <= 0 {
			return fmt.Errorf("ramp-decay: peak hours must be positive")
		}
		if l.DecayRate < 0 {
			return fmt.Errorf("ramp-decay: decay rate must be non-negative")
		}
	case ShapePlateauDecay:
		if l.RampHours < 0 || l.PlateauHours < 0 {
			return fmt.Errorf("plateau-decay: durations must be non-negative")
		}
		if l.RampHours > l.PlateauHours {
			return fmt.Errorf("plateau-decay: ramp (%gh) outlasts plateau (%gh)", l.RampHours, l.PlateauHours)
		}
		if l.DecayRate < 0 {
			return fmt.Errorf("plateau-decay: decay rate must be non-negative")
		}
	case ShapeWeibull:
		if l.WeibullK <= 1 {
			return fmt.Errorf("weibull: shape must be greater than 1 for a right-skewed peak")
		}
		if l.PeakDay+l.DayOffset <= 0 {
			return fmt.Errorf("weibull: peak day must be positive")
		}
		if l.Normalization < 0 {
			return fmt.Errorf("weibull: normalization must be non-negative")
		}
	default:
		return fmt.Errorf("unknown lifecycle shape %v", l.Shape)
	}
	return nil
}

// Multiplier returns the lifecycle factor after elapsedHours
func (l Lifecycle) Multiplier(elapsedHours float64) float64 {
	switch l.Shape {
	case ShapeRampDecay:
		return l.rampDecay(elapsedHours)
	case ShapePlateauDecay:
		return l.plateauDecay(elapsedHours)
	case ShapeWeibull:
		return l.weibull(elapsedHours / 24)
	}
	return 0
}

func (l Lifecycle) rampDecay(h float64) float64 {
	t := h + l.OffsetHours
	if t <= l.PeakHours {
		r := t / l.PeakHours
		return r * r
	}
	return math.Exp(-l.DecayRate * (t - l.PeakHours))
}

func (l Lifecycle) plateauDecay(h float64) float64 {
	if h < l.RampHours {
		r := h / l.RampHours
		return r * r
	}
	if h <= l.PlateauHours {
		return 1.0
	}
	days := (h - l.PlateauHours) / 24
	return math.Exp(-l.DecayRate * days)
}

// WeibullScale returns the scale that puts the density mode at PeakDay
func (l Lifecycle) WeibullScale() float64 {
	k := l.WeibullK
	return (l.PeakDay + l.DayOffset) / math.Pow((k-1)/k, 1/k)
}

// WeibullModeDensity is the default Normalization
func (l Lifecycle) WeibullModeDensity() float64 {
	return weibullDensity(l.PeakDay+l.DayOffset, l.WeibullK, l.WeibullScale())
}

func (l Lifecycle) weibull(days float64) float64 {
	x := days + l.DayOffset
	if x <= 0 {
		return 0
	}
	norm := l.Normalization
	if norm == 0 {
		norm = l.WeibullModeDensity()
	}
	return weibullDensity(x, l.WeibullK, l.WeibullScale()) / norm
}

func weibullDensity(x, k, lambda float64) float64 {
	z := x / lambda
	return (k / lambda) * math.Pow(z, k-1) * math.Exp(-math.Pow(z, k))
}
