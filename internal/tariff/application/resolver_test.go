package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	tariff "utility-billing/internal/tariff/domain"
	"utility-billing/internal/tariff/infrastructure/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func flatTariff(id string, from time.Time, until *time.Time, rate float64) tariff.Tariff {
	return tariff.Tariff{
		ID:            id,
		ProviderID:    "p-1",
		Name:          id,
		ActiveFrom:    from,
		ActiveUntil:   until,
		Configuration: tariff.Configuration{Type: tariff.TypeFlat, Rate: rate},
	}
}

func TestResolvePicksLatestActiveFrom(t *testing.T) {
	repo := memory.NewRepository()
	until := date(2024, 12, 31)
	repo.AddTariff(flatTariff("old", date(2023, 1, 1), nil, 0.10))
	repo.AddTariff(flatTariff("new", date(2024, 6, 1), &until, 0.12))
	repo.AddTariff(flatTariff("future", date(2025, 1, 1), nil, 0.20))

	resolver, err := NewResolver(repo)
	require.NoError(t, err)

	got, err := resolver.Resolve(context.Background(), "p-1", date(2024, 7, 1))
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)

	got, err = resolver.Resolve(context.Background(), "p-1", date(2024, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, "old", got.ID)

	got, err = resolver.Resolve(context.Background(), "p-1", until)
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID, "active until is inclusive")

	got, err = resolver.Resolve(context.Background(), "p-1", date(2025, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "future", got.ID, "active from is inclusive")
}

func TestResolveTieBreaksByID(t *testing.T) {
	repo := memory.NewRepository()
	repo.AddTariff(flatTariff("b", date(2024, 1, 1), nil, 0.1))
	repo.AddTariff(flatTariff("a", date(2024, 1, 1), nil, 0.2))
	resolver, err := NewResolver(repo)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		got, err := resolver.Resolve(context.Background(), "p-1", date(2024, 3, 1))
		require.NoError(t, err)
		assert.Equal(t, "b", got.ID)
	}
}

func TestResolveNotFound(t *testing.T) {
	repo := memory.NewRepository()
	repo.AddTariff(flatTariff("future", date(2025, 1, 1), nil, 0.2))
	resolver, err := NewResolver(repo)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), "p-1", date(2024, 1, 1))
	assert.ErrorIs(t, err, tariff.ErrNotFound)

	_, err = resolver.Resolve(context.Background(), "", date(2024, 1, 1))
	assert.ErrorIs(t, err, tariff.ErrEmptyProviderID)
}

func TestCalculateCostUnsupportedType(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	resolver, err := NewResolver(memory.NewRepository(), WithLogger(zap.New(core)))
	require.NoError(t, err)

	tr := tariff.Tariff{ID: "t-9", Configuration: tariff.Configuration{Type: "seasonal", Rate: 1}}
	cost, err := resolver.CalculateCost(tr, 100, date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)

	entries := logs.FilterMessage("unsupported tariff type").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "t-9", entries[0].ContextMap()["tariff_id"])
	assert.Equal(t, "seasonal", entries[0].ContextMap()["type"])

	strict, err := NewResolver(memory.NewRepository(), WithStrictTypes(true))
	require.NoError(t, err)
	_, err = strict.CalculateCost(tr, 100, date(2024, 1, 1))
	assert.ErrorIs(t, err, tariff.ErrUnsupportedType)
}

func TestCalculateCostDispatches(t *testing.T) {
	resolver, err := NewResolver(memory.NewRepository())
	require.NoError(t, err)

	cost, err := resolver.CalculateCost(flatTariff("f", date(2024, 1, 1), nil, 0.15), 200, date(2024, 1, 1))
	require.NoError(t, err)
	assert.InDelta(t, 30.0, cost, 1e-9)

	broken := tariff.Tariff{ID: "tou", Configuration: tariff.Configuration{Type: tariff.TypeTimeOfUse}}
	_, err = resolver.CalculateCost(broken, 1, date(2024, 1, 1))
	assert.ErrorIs(t, err, tariff.ErrInvalidConfiguration)
}

func TestNewResolverNilRepo(t *testing.T) {
	_, err := NewResolver(nil)
	assert.Error(t, err)
}
