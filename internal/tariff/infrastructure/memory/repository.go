package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	tariff "utility-billing/internal/tariff/domain"
)

// Repository is an in-memory tariff store and provider directory.
type Repository struct {
	mu        sync.RWMutex
	tariffs   map[string][]tariff.Tariff
	providers map[string]tariff.Provider
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{
		tariffs:   make(map[string][]tariff.Tariff),
		providers: make(map[string]tariff.Provider),
	}
}

// AddProvider registers a provider for its service type.
func (r *Repository) AddProvider(p tariff.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ServiceType] = p
}

// AddTariff stores a copy of t.
func (r *Repository) AddTariff(t tariff.Tariff) {
	t.Configuration = t.Configuration.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tariffs[t.ProviderID] = append(r.tariffs[t.ProviderID], t)
}

// UpdateTariff replaces the stored tariff with t's id. It reports whether one
// was found.
func (r *Repository) UpdateTariff(t tariff.Tariff) bool {
	t.Configuration = t.Configuration.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.tariffs[t.ProviderID] {
		if stored.ID == t.ID {
			r.tariffs[t.ProviderID][i] = t
			return true
		}
	}
	return false
}

// ListByProvider returns copies of the provider's tariffs ordered by id.
func (r *Repository) ListByProvider(ctx context.Context, providerID string) ([]tariff.Tariff, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.tariffs[providerID]
	out := make([]tariff.Tariff, len(stored))
	for i, t := range stored {
		t.Configuration = t.Configuration.Clone()
		out[i] = t
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ProviderForService returns the provider for serviceType.
func (r *Repository) ProviderForService(ctx context.Context, serviceType string) (tariff.Provider, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[serviceType]
	if !ok {
		return tariff.Provider{}, fmt.Errorf("%w: service %s", tariff.ErrProviderNotFound, serviceType)
	}
	return p, nil
}
