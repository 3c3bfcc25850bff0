package tariff

import "context"

// Repository loads tariffs.
type Repository interface {
	ListByProvider(ctx context.Context, providerID string) ([]Tariff, error)
}

// ProviderDirectory maps a service type (meter type) to its provider.
type ProviderDirectory interface {
	ProviderForService(ctx context.Context, serviceType string) (Provider, error)
}
