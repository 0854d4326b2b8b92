package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ListingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewListingCache(rdb, 15*time.Minute), mr
}

func TestListingCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, hit)

	listings := []Listing{{Code: "TB-1", Name: "Tote", Brand: "Atelier"}}
	require.NoError(t, cache.Set(ctx, 1, listings))

	got, hit, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, listings, got)

	// Another owner's snapshot stays independent.
	_, hit, err = cache.Get(ctx, 2)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestListingCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, []Listing{{Code: "TB-1"}}))
	mr.FastForward(16 * time.Minute)

	_, hit, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestListingCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 1, []Listing{{Code: "TB-1"}}))
	require.NoError(t, cache.Invalidate(ctx, 1))

	_, hit, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, hit)
}
