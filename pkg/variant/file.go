package variant

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vjranagit/engagesim/pkg/curve"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
)

// fileRecord is the YAML layout of a variants file:
//
//	variants:
//	  - name: weekend-burst
//	    start: "2025-04-19 09:00"
//	    duration_hours: 336
//	    metrics:
//	      - metric: likes
//	        peak: 600
//	        noise: additive
//	        noise_level: 0.1
//	        floor: 1
//	        cycle: {start: 9, end: 1, night_min: 0.1}
//	        lifecycle: {shape: ramp-decay, peak_hours: 6, decay_rate: 0.2}
type fileRecord struct {
	Variants []variantRecord `yaml:"variants"`
}

type variantRecord struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	Start         string         `yaml:"start"`
	DurationHours int            `yaml:"duration_hours"`
	Metrics       []metricRecord `yaml:"metrics"`
}

type metricRecord struct {
	Metric     string          `yaml:"metric"`
	Peak       float64         `yaml:"peak"`
	Scale      float64         `yaml:"scale"`
	Noise      string          `yaml:"noise"`
	NoiseLevel float64         `yaml:"noise_level"`
	Floor      float64         `yaml:"floor"`
	Cycle      *cycleRecord    `yaml:"cycle"`
	Lifecycle  lifecycleRecord `yaml:"lifecycle"`
}

type cycleRecord struct {
	Start       int     `yaml:"start"`
	End         int     `yaml:"end"`
	NightMin    float64 `yaml:"night_min"`
	NightJitter float64 `yaml:"night_jitter"`
}

type lifecycleRecord struct {
	Shape         string  `yaml:"shape"`
	PeakHours     float64 `yaml:"peak_hours"`
	OffsetHours   float64 `yaml:"offset_hours"`
	RampHours     float64 `yaml:"ramp_hours"`
	PlateauHours  float64 `yaml:"plateau_hours"`
	PlateauDays   float64 `yaml:"plateau_days"`
	DecayRate     float64 `yaml:"decay_rate"`
	WeibullK      float64 `yaml:"weibull_k"`
	PeakDay       float64 `yaml:"peak_day"`
	DayOffset     float64 `yaml:"day_offset"`
	Normalization float64 `yaml:"normalization"`
}

// LoadFile reads variant records from a YAML file
func LoadFile(path string) ([]Variant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open variants file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses and validates YAML variant records
func Decode(r io.Reader) ([]Variant, error) {
	var file fileRecord
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode variants: %w", err)
	}

	out := make([]Variant, 0, len(file.Variants))
	for _, rec := range file.Variants {
		v, err := rec.toVariant()
		if err != nil {
			return nil, err
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// RegisterFile loads a variants file into the registry
func (r *Registry) RegisterFile(path string) error {
	variants, err := LoadFile(path)
	if err != nil {
		return err
	}
	for _, v := range variants {
		if err := r.Register(v); err != nil {
			return err
		}
	}
	return nil
}

func (rec variantRecord) toVariant() (Variant, error) {
	v := Variant{
		Name:          rec.Name,
		Description:   rec.Description,
		Start:         DefaultStart,
		DurationHours: rec.DurationHours,
	}
	if rec.Start != "" {
		ts, err := types.ParseTimestamp(rec.Start)
		if err != nil {
			return v, fmt.Errorf("variant %s: %w", rec.Name, err)
		}
		v.Start = ts
	}
	if v.DurationHours == 0 {
		v.DurationHours = DefaultDurationHours
	}

	for _, m := range rec.Metrics {
		p, err := m.toParameters()
		if err != nil {
			return v, fmt.Errorf("variant %s: %w", rec.Name, err)
		}
		v.Metrics = append(v.Metrics, p)
	}
	return v, nil
}

func (rec metricRecord) toParameters() (simulator.Parameters, error) {
	metric, err := types.ParseMetric(rec.Metric)
	if err != nil {
		return simulator.Parameters{}, err
	}
	noise, err := simulator.ParseNoiseMode(rec.Noise)
	if err != nil {
		return simulator.Parameters{}, fmt.Errorf("%s: %w", metric, err)
	}
	shape, err := curve.ParseShape(rec.Lifecycle.Shape)
	if err != nil {
		return simulator.Parameters{}, fmt.Errorf("%s: %w", metric, err)
	}

	p := simulator.Parameters{
		Metric:     metric,
		Peak:       rec.Peak,
		Scale:      rec.Scale,
		NoiseLevel: rec.NoiseLevel,
		Noise:      noise,
		Floor:      rec.Floor,
		Lifecycle: curve.Lifecycle{
			Shape:         shape,
			PeakHours:     rec.Lifecycle.PeakHours,
			OffsetHours:   rec.Lifecycle.OffsetHours,
			RampHours:     rec.Lifecycle.RampHours,
			PlateauHours:  rec.Lifecycle.PlateauHours,
			DecayRate:     rec.Lifecycle.DecayRate,
			WeibullK:      rec.Lifecycle.WeibullK,
			PeakDay:       rec.Lifecycle.PeakDay,
			DayOffset:     rec.Lifecycle.DayOffset,
			Normalization: rec.Lifecycle.Normalization,
		},
	}
	if rec.Lifecycle.PlateauDays > 0 {
		p.Lifecycle.PlateauHours = rec.Lifecycle.PlateauDays * 24
	}
	if p.Floor == 0 {
		p.Floor = 1
	}
	if rec.Cycle != nil {
		p.Cycle = &curve.DailyCycle{
			Window:      curve.ActiveWindow{Start: rec.Cycle.Start, End: rec.Cycle.End},
			NightMin:    rec.Cycle.NightMin,
			NightJitter: rec.Cycle.NightJitter,
		}
	}
	return p, nil
}
