package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListingCache keeps per-owner listing snapshots in redis so the page does
// not hit the upstream API on every render.
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListingCache constructs the cache.
func NewListingCache(rdb *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{rdb: rdb, ttl: ttl}
}

func listingKey(ownerID int64) string {
	return fmt.Sprintf("marketplace:listings:%d", ownerID)
}

// Get returns the cached listings for the owner, or (nil, false) on miss.
func (c *ListingCache) Get(ctx context.Context, ownerID int64) ([]Listing, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, listingKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var listings []Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, false, err
	}
	return listings, true, nil
}

// Set stores the listings for the owner with TTL.
func (c *ListingCache) Set(ctx context.Context, ownerID int64, listings []Listing) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(listings)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listingKey(ownerID), raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot for the owner.
func (c *ListingCache) Invalidate(ctx context.Context, ownerID int64) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, listingKey(ownerID)).Err()
}
