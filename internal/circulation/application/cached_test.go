package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"utility-billing/internal/circulation/infrastructure/cache"
	metering "utility-billing/internal/metering/domain"
	property "utility-billing/internal/property/domain"
)

type brokenCache struct {
	err error
}

func (b brokenCache) Get(context.Context, string) (float64, bool, error)        { return 0, false, b.err }
func (b brokenCache) Set(context.Context, string, float64, time.Duration) error { return b.err }
func (b brokenCache) DeletePrefix(context.Context, string) (int, error)         { return 0, b.err }
func (b brokenCache) Flush(context.Context) error                               { return b.err }

func TestCachedCalculatorMemoisesSummer(t *testing.T) {
	consumption := &stubConsumption{values: map[metering.MeterType]float64{metering.Heating: 300}}
	calc, _, _ := newFixture(t, consumption)
	store := cache.NewMemory()
	cached, err := NewCachedCalculator(calc, store, nil)
	require.NoError(t, err)

	building := property.Building{ID: "b1", TotalApartments: 3}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		energy, err := cached.CalculateSummer(ctx, building, month(2024, time.June))
		require.NoError(t, err)
		assert.Equal(t, 300.0, energy)
	}
	// heating and hot water are read once
	assert.Equal(t, 2, consumption.calls)

	value, ok, err := store.Get(ctx, "gyvatukas:b1:summer:2024-06")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 300.0, value)
}

func TestCachedCalculatorSkipsCacheOutOfSeason(t *testing.T) {
	calc, _, _ := newFixture(t, &stubConsumption{})
	store := cache.NewMemory()
	cached, err := NewCachedCalculator(calc, store, nil)
	require.NoError(t, err)

	energy, err := cached.CalculateSummer(context.Background(), property.Building{ID: "b1", TotalApartments: 3}, month(2024, time.December))
	require.NoError(t, err)
	assert.Zero(t, energy)
	assert.Zero(t, store.Len())
}

func TestCachedCalculatorValidatesBeforeCache(t *testing.T) {
	calc, _, _ := newFixture(t, &stubConsumption{})
	store := cache.NewMemory()
	cached, err := NewCachedCalculator(calc, store, nil)
	require.NoError(t, err)

	_, err = cached.CalculateWinter(context.Background(), property.Building{ID: "b1"}, month(2024, time.December))
	assert.Error(t, err)
	assert.Zero(t, store.Len())
}

func TestCachedCalculatorFallsBackOnCacheFailure(t *testing.T) {
	consumption := &stubConsumption{values: map[metering.MeterType]float64{metering.Heating: 120}}
	calc, _, _ := newFixture(t, consumption)
	core, logs := observer.New(zapcore.DebugLevel)
	cached, err := NewCachedCalculator(calc, brokenCache{err: errors.New("redis: connection refused")}, zap.New(core))
	require.NoError(t, err)

	building := property.Building{ID: "b1", TotalApartments: 3, GyvatukasSummerAverage: floatPtr(50)}
	summer, err := cached.Calculate(context.Background(), building, month(2024, time.June))
	require.NoError(t, err)
	assert.Equal(t, 120.0, summer)

	winter, err := cached.Calculate(context.Background(), building, month(2024, time.January))
	require.NoError(t, err)
	assert.Equal(t, 65.0, winter)

	assert.Equal(t, 2, logs.FilterMessage("circulation cache failure, calculating directly").Len())
}

func TestCachedCalculatorPropagatesCalculationErrors(t *testing.T) {
	boom := errors.New("readings unavailable")
	calc, _, _ := newFixture(t, &stubConsumption{err: boom})
	store := cache.NewMemory()
	cached, err := NewCachedCalculator(calc, store, nil)
	require.NoError(t, err)

	_, err = cached.CalculateSummer(context.Background(), property.Building{ID: "b1", TotalApartments: 3}, month(2024, time.June))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.Len())
}

func TestClearCacheSwallowsErrors(t *testing.T) {
	calc, _, _ := newFixture(t, &stubConsumption{})
	core, logs := observer.New(zapcore.DebugLevel)
	cached, err := NewCachedCalculator(calc, brokenCache{err: errors.New("timeout")}, zap.New(core))
	require.NoError(t, err)

	cached.ClearBuildingCache(context.Background(), "b1")
	cached.ClearAllCache(context.Background())
	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestClearBuildingCache(t *testing.T) {
	consumption := &stubConsumption{values: map[metering.MeterType]float64{metering.Heating: 10}}
	calc, _, _ := newFixture(t, consumption)
	store := cache.NewMemory()
	cached, err := NewCachedCalculator(calc, store, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = cached.CalculateSummer(ctx, property.Building{ID: "b1", TotalApartments: 3}, month(2024, time.June))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "gyvatukas:b2:summer:2024-06", 5, time.Hour))

	cached.ClearBuildingCache(ctx, "b1")
	assert.Equal(t, 1, store.Len())

	cached.ClearAllCache(ctx)
	assert.Zero(t, store.Len())
}
