// Package cache memoises circulation results. Implementations are best
// effort: callers recover from *Error by computing directly.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Namespace prefixes every key written by this package.
const Namespace = "gyvatukas:"

// Cache stores float64 results with a TTL.
type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix and returns the count.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Flush removes every key in Namespace.
	Flush(ctx context.Context) error
}

// Error is a cache-layer failure, as opposed to a miss or a compute error.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Remember returns the cached value for key or computes and stores it.
// Compute errors are returned unchanged and nothing is stored. A Get failure
// returns a *Error before computing. A Set failure returns the computed value
// together with a *Error.
func Remember(ctx context.Context, c Cache, key string, ttl time.Duration, compute func() (float64, error)) (float64, bool, error) {
	value, ok, err := c.Get(ctx, key)
	if err != nil {
		return 0, false, &Error{Op: "get", Key: key, Err: err}
	}
	if ok {
		return value, true, nil
	}

	value, err = compute()
	if err != nil {
		return 0, false, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		return value, false, &Error{Op: "set", Key: key, Err: err}
	}
	return value, false, nil
}

// Key builds the key for a building, calculation type and month.
func Key(buildingID, calcType string, month time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", Namespace, buildingID, calcType, month.Format("2006-01"))
}

// BuildingPrefix is the key prefix shared by all entries of a building.
func BuildingPrefix(buildingID string) string {
	return Namespace + buildingID + ":"
}
