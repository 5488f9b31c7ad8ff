// Package cache keeps hot investor-country lookups in Redis. Compliance
// modules read the counterparty country on every transfer check; the cache
// keeps that off the bindings store. Entries are invalidated on any binding
// mutation, so a short TTL is belt-and-braces only.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"aurum/pkg/domain"
)

// CountryCache is nil-safe: a nil cache misses on every lookup.
type CountryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCountryCache(client *redis.Client, ttl time.Duration) *CountryCache {
	return &CountryCache{client: client, ttl: ttl}
}

func key(wallet domain.Address) string {
	return "aurum:country:" + wallet.String()
}

// Get returns the cached country for wallet, if present.
func (c *CountryCache) Get(ctx context.Context, wallet domain.Address) (domain.CountryCode, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	raw, err := c.client.Get(ctx, key(wallet)).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, false
	}
	return domain.CountryCode(n), true
}

// Set stores the country for wallet. Failures are ignored; the bindings
// store remains authoritative.
func (c *CountryCache) Set(ctx context.Context, wallet domain.Address, country domain.CountryCode) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key(wallet), strconv.FormatUint(uint64(country), 10), c.ttl).Err()
}

// Invalidate drops the cached entry for wallet.
func (c *CountryCache) Invalidate(ctx context.Context, wallet domain.Address) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, key(wallet)).Err()
}
