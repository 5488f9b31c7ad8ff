//go:build integration

package cache_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/identityregistry/cache"
	"aurum/pkg/domain"
	"aurum/pkg/testutil/containers"
)

func randomWallet(t *testing.T) domain.Address {
	t.Helper()
	var wallet domain.Address
	_, err := rand.Read(wallet[:])
	require.NoError(t, err)
	return wallet
}

func TestCountryCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	redis := containers.NewRedisContainer(t)
	c := cache.NewCountryCache(redis.Client, time.Minute)
	ctx := context.Background()
	wallet := randomWallet(t)

	_, ok := c.Get(ctx, wallet)
	assert.False(t, ok)

	c.Set(ctx, wallet, 756)
	country, ok := c.Get(ctx, wallet)
	require.True(t, ok)
	assert.Equal(t, domain.CountryCode(756), country)

	c.Invalidate(ctx, wallet)
	_, ok = c.Get(ctx, wallet)
	assert.False(t, ok)
}

func TestCountryCacheTTL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	redis := containers.NewRedisContainer(t)
	c := cache.NewCountryCache(redis.Client, 100*time.Millisecond)
	ctx := context.Background()
	wallet := randomWallet(t)

	c.Set(ctx, wallet, 840)
	_, ok := c.Get(ctx, wallet)
	require.True(t, ok)

	time.Sleep(200 * time.Millisecond)
	_, ok = c.Get(ctx, wallet)
	assert.False(t, ok)
}

func TestNilCacheMissesSafely(t *testing.T) {
	var c *cache.CountryCache
	ctx := context.Background()
	wallet := randomWallet(t)

	_, ok := c.Get(ctx, wallet)
	assert.False(t, ok)
	c.Set(ctx, wallet, 756)
	c.Invalidate(ctx, wallet)
}
