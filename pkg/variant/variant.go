package variant

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vjranagit/engagesim/pkg/composer"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
)

// ErrUnknownVariant is returned by Get for unregistered names
var ErrUnknownVariant = errors.New("unknown variant")

// Variant is a named, fully parameterized dataset configuration
type Variant struct {
	Name          string
	Description   string
	Start         time.Time
	DurationHours int
	Metrics       []simulator.Parameters
}

// Validate checks the record and every metric's parameters
func (v Variant) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("variant name is required")
	}
	if v.DurationHours <= 0 {
		return fmt.Errorf("variant %s: duration must be positive", v.Name)
	}
	seen := make(map[types.Metric]bool, len(v.Metrics))
	for _, p := range v.Metrics {
		if seen[p.Metric] {
			return fmt.Errorf("variant %s: metric %s configured twice", v.Name, p.Metric)
		}
		seen[p.Metric] = true
		if err := p.Validate(); err != nil {
			return fmt.Errorf("variant %s: %w", v.Name, err)
		}
	}
	for _, m := range types.Metrics {
		if !seen[m] {
			return fmt.Errorf("variant %s: metric %s is not configured", v.Name, m)
		}
	}
	return nil
}

// Parameters returns the simulation parameters of one metric
func (v Variant) Parameters(m types.Metric) (simulator.Parameters, bool) {
	for _, p := range v.Metrics {
		if p.Metric == m {
			return p, true
		}
	}
	return simulator.Parameters{}, false
}

// Generate composes the variant's combined series. Noise streams are
// scoped by variant name so every variant draws independently.
func (v Variant) Generate(src simulator.SourceFunc) ([]types.CombinedRecord, error) {
	return composer.Compose(v.Start, v.DurationHours, v.Metrics, src.Scoped(v.Name))
}

// Registry holds variants in registration order
type Registry struct {
	mu       sync.RWMutex
	variants map[string]Variant
	order    []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{variants: make(map[string]Variant)}
}

// Register validates and adds a variant
func (r *Registry) Register(v Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.variants[v.Name]; exists {
		return fmt.Errorf("variant %s already registered", v.Name)
	}
	r.variants[v.Name] = v
	r.order = append(r.order, v.Name)
	return nil
}

// Get looks up a variant by name
func (r *Registry) Get(name string) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
	}
	return v, nil
}

// List returns all variants in registration order
func (r *Registry) List() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Variant, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.variants[name])
	}
	return out
}

// Names returns registered names in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Select resolves names, or every variant when names is empty
func (r *Registry) Select(names []string) ([]Variant, error) {
	if len(names) == 0 {
		return r.List(), nil
	}
	out := make([]Variant, 0, len(names))
	for _, name := range names {
		v, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
