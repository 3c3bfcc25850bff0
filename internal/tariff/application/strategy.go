package application

import (
	"sync"
	"time"

	"utility-billing/internal/formula"
	tariff "utility-billing/internal/tariff/domain"
)

// Strategy prices consumption for one configuration type.
type Strategy interface {
	Type() tariff.ConfigurationType
	Calculate(cfg tariff.Configuration, consumption float64, at time.Time) (float64, error)
}

// Registry maps configuration types to strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[tariff.ConfigurationType]Strategy
}

// NewRegistry builds a registry holding strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[tariff.ConfigurationType]Strategy, len(strategies))}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// DefaultRegistry registers the flat, time-of-use, tiered and custom formula
// strategies. A nil evaluator uses the package default.
func DefaultRegistry(evaluator *formula.Evaluator) *Registry {
	return NewRegistry(
		Flat{},
		TimeOfUse{},
		Tiered{},
		NewCustomFormula(evaluator),
	)
}

// Register adds or replaces the strategy for its type.
func (r *Registry) Register(s Strategy) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Type()] = s
}

// Lookup returns the strategy for t.
func (r *Registry) Lookup(t tariff.ConfigurationType) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[t]
	return s, ok
}
