package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	circulation "utility-billing/internal/circulation/domain"
	"utility-billing/internal/circulation/infrastructure/cache"
	"utility-billing/internal/logging"
	"utility-billing/internal/observability/metrics"
	property "utility-billing/internal/property/domain"
)

// CachedCalculator memoises seasonal results per building and month.
type CachedCalculator struct {
	inner  *Calculator
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCalculator wraps inner with c. A nil logger is replaced with a no-op.
func NewCachedCalculator(inner *Calculator, c cache.Cache, logger *zap.Logger) (*CachedCalculator, error) {
	if inner == nil {
		return nil, errors.New("cached calculator: nil calculator")
	}
	if c == nil {
		return nil, errors.New("cached calculator: nil cache")
	}
	return &CachedCalculator{inner: inner, cache: c, ttl: inner.cfg.CacheTTL, logger: logging.OrNop(logger)}, nil
}

// CalculateSummer implements CirculationCalculator.
func (c *CachedCalculator) CalculateSummer(ctx context.Context, building property.Building, month time.Time) (float64, error) {
	if err := c.inner.ValidateBuilding(building); err != nil {
		return 0, err
	}
	if c.inner.IsHeatingSeason(month) {
		return c.inner.CalculateSummer(ctx, building, month)
	}
	return c.remember(ctx, building, month, circulation.Summer, c.inner.CalculateSummer)
}

// CalculateWinter implements CirculationCalculator.
func (c *CachedCalculator) CalculateWinter(ctx context.Context, building property.Building, month time.Time) (float64, error) {
	if err := c.inner.ValidateBuilding(building); err != nil {
		return 0, err
	}
	if c.inner.IsSummerPeriod(month) {
		return c.inner.CalculateWinter(ctx, building, month)
	}
	return c.remember(ctx, building, month, circulation.Winter, c.inner.CalculateWinter)
}

// Calculate implements CirculationCalculator.
func (c *CachedCalculator) Calculate(ctx context.Context, building property.Building, month time.Time) (float64, error) {
	if c.inner.IsHeatingSeason(month) {
		return c.CalculateWinter(ctx, building, month)
	}
	return c.CalculateSummer(ctx, building, month)
}

// Distribute implements CirculationCalculator. Distribution is not cached.
func (c *CachedCalculator) Distribute(ctx context.Context, building property.Building, totalCost float64, method circulation.DistributionMethod) (map[string]float64, error) {
	return c.inner.Distribute(ctx, building, totalCost, method)
}

// ClearBuildingCache drops every cached result of a building.
func (c *CachedCalculator) ClearBuildingCache(ctx context.Context, buildingID string) {
	deleted, err := c.cache.DeletePrefix(ctx, cache.BuildingPrefix(buildingID))
	if err != nil {
		metrics.IncGyvatukasCacheError("delete")
		c.logger.Error("failed to clear building circulation cache",
			zap.String("building_id", buildingID), zap.Error(err))
		return
	}
	c.logger.Debug("cleared building circulation cache",
		zap.String("building_id", buildingID), zap.Int("deleted", deleted))
}

// ClearAllCache drops every cached circulation result.
func (c *CachedCalculator) ClearAllCache(ctx context.Context) {
	if err := c.cache.Flush(ctx); err != nil {
		metrics.IncGyvatukasCacheError("flush")
		c.logger.Error("failed to clear circulation cache", zap.Error(err))
	}
}

type calculateFunc func(ctx context.Context, building property.Building, month time.Time) (float64, error)

func (c *CachedCalculator) remember(ctx context.Context, building property.Building, month time.Time, calcType circulation.CalculationType, calc calculateFunc) (float64, error) {
	key := cache.Key(building.ID, string(calcType), month)
	value, hit, err := cache.Remember(ctx, c.cache, key, c.ttl, func() (float64, error) {
		return calc(ctx, building, month)
	})
	if err == nil {
		metrics.IncGyvatukasCacheLookup(hit)
		return value, nil
	}

	var cerr *cache.Error
	if !errors.As(err, &cerr) {
		return 0, err
	}
	metrics.IncGyvatukasCacheError(cerr.Op)
	c.logger.Error("circulation cache failure, calculating directly",
		zap.String("building_id", building.ID),
		zap.String("key", key),
		zap.String("op", cerr.Op),
		zap.Error(cerr.Err))
	if cerr.Op == "set" {
		return value, nil
	}
	return calc(ctx, building, month)
}

var _ CirculationCalculator = (*Calculator)(nil)
var _ CirculationCalculator = (*CachedCalculator)(nil)
