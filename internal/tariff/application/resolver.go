package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"utility-billing/internal/observability/metrics"
	tariff "utility-billing/internal/tariff/domain"
)

// Resolver picks the active tariff for a provider and prices consumption.
type Resolver struct {
	repo     tariff.Repository
	registry *Registry
	logger   *zap.Logger
	strict   bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRegistry overrides the strategy registry.
func WithRegistry(registry *Registry) ResolverOption {
	return func(r *Resolver) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrictTypes makes unsupported configuration types an error instead of
// a zero cost.
func WithStrictTypes(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// NewResolver constructs a resolver.
func NewResolver(repo tariff.Repository, opts ...ResolverOption) (*Resolver, error) {
	if repo == nil {
		return nil, errors.New("tariff resolver: nil repo")
	}
	r := &Resolver{
		repo:     repo,
		registry: DefaultRegistry(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the provider's tariff active at at. Bounds are inclusive.
// Among overlapping candidates the latest ActiveFrom wins, then the greatest ID.
func (r *Resolver) Resolve(ctx context.Context, providerID string, at time.Time) (tariff.Tariff, error) {
	if providerID == "" {
		return tariff.Tariff{}, tariff.ErrEmptyProviderID
	}
	candidates, err := r.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return tariff.Tariff{}, fmt.Errorf("tariff resolver: list provider %s: %w", providerID, err)
	}

	var best *tariff.Tariff
	for i := range candidates {
		c := &candidates[i]
		if !c.ActiveAt(at) {
			continue
		}
		if best == nil || preferred(c, best) {
			best = c
		}
	}
	if best == nil {
		return tariff.Tariff{}, fmt.Errorf("%w: provider %s at %s", tariff.ErrNotFound, providerID, at.Format(time.RFC3339))
	}
	return *best, nil
}

func preferred(a, b *tariff.Tariff) bool {
	if !a.ActiveFrom.Equal(b.ActiveFrom) {
		return a.ActiveFrom.After(b.ActiveFrom)
	}
	return a.ID > b.ID
}

// CalculateCost prices consumption with the strategy registered for the
// tariff's configuration type. Unknown types yield 0 with a warning unless
// strict types are enabled.
func (r *Resolver) CalculateCost(t tariff.Tariff, consumption float64, at time.Time) (float64, error) {
	strategy, ok := r.registry.Lookup(t.Configuration.Type)
	if !ok {
		metrics.IncTariffUnsupportedType(string(t.Configuration.Type))
		if r.strict {
			return 0, fmt.Errorf("%w: %q (tariff %s)", tariff.ErrUnsupportedType, t.Configuration.Type, t.ID)
		}
		r.logger.Warn("unsupported tariff type",
			zap.String("tariff_id", t.ID),
			zap.String("type", string(t.Configuration.Type)),
		)
		return 0, nil
	}
	cost, err := strategy.Calculate(t.Configuration, consumption, at)
	if err != nil {
		return 0, fmt.Errorf("tariff %s: %w", t.ID, err)
	}
	return cost, nil
}
