package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCache struct {
	getErr error
	setErr error
	sets   int
}

func (f *failingCache) Get(context.Context, string) (float64, bool, error) { return 0, false, f.getErr }
func (f *failingCache) Set(context.Context, string, float64, time.Duration) error {
	f.sets++
	return f.setErr
}
func (f *failingCache) DeletePrefix(context.Context, string) (int, error) { return 0, nil }
func (f *failingCache) Flush(context.Context) error                       { return nil }

func TestRememberComputesOnce(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	calls := 0
	compute := func() (float64, error) {
		calls++
		return 42.5, nil
	}

	value, hit, err := Remember(ctx, c, "gyvatukas:b1:summer:2024-06", time.Hour, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42.5, value)

	value, hit, err = Remember(ctx, c, "gyvatukas:b1:summer:2024-06", time.Hour, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42.5, value)
	assert.Equal(t, 1, calls)
}

func TestRememberDoesNotStoreComputeErrors(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	boom := errors.New("boom")

	_, _, err := Remember(ctx, c, "k", time.Hour, func() (float64, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	var cerr *Error
	assert.False(t, errors.As(err, &cerr))
	assert.Zero(t, c.Len())
}

func TestRememberWrapsCacheFailures(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")

	_, _, err := Remember(ctx, &failingCache{getErr: down}, "k", time.Hour, func() (float64, error) {
		t.Fatal("compute must not run after a get failure")
		return 0, nil
	})
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "get", cerr.Op)
	assert.ErrorIs(t, err, down)

	value, _, err := Remember(ctx, &failingCache{setErr: down}, "k", time.Hour, func() (float64, error) { return 7, nil })
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "set", cerr.Op)
	assert.Equal(t, 7.0, value)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDeletePrefixAndFlush(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, Key("b1", "summer", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), 1, 0))
	require.NoError(t, c.Set(ctx, Key("b1", "winter", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)), 2, 0))
	require.NoError(t, c.Set(ctx, Key("b10", "summer", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), 3, 0))
	require.NoError(t, c.Set(ctx, "other:key", 4, 0))

	deleted, err := c.DeletePrefix(ctx, BuildingPrefix("b1"))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, 1, c.Len())
}

func TestKeyFormat(t *testing.T) {
	month := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "gyvatukas:b1:winter:2024-01", Key("b1", "winter", month))
	assert.Equal(t, "gyvatukas:b1:", BuildingPrefix("b1"))
}

func TestRedisUnavailableSurfacesErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	defer client.Close()
	c := NewRedis(client)
	ctx := context.Background()

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, "k", 1, time.Minute))
	_, err = c.DeletePrefix(ctx, Namespace)
	assert.Error(t, err)

	_, _, err = Remember(ctx, c, "k", time.Minute, func() (float64, error) { return 1, nil })
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "get", cerr.Op)
}
