package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*StatusCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatusCache(client, time.Minute), mr
}

func TestStatusCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx)
	assert.False(t, ok)

	status := GenerationStatus{
		HasExisting:   true,
		CurrentID:     7,
		CurrentTitle:  "2025-003",
		CurrentStatus: StatusFinalized,
		CanGenerate:   true,
		Message:       "a new ledger order can be generated",
	}
	cache.Set(ctx, status)

	got, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, status, got)
}

func TestStatusCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, GenerationStatus{CanGenerate: true})
	cache.Invalidate(ctx)

	_, ok := cache.Get(ctx)
	assert.False(t, ok)
}

func TestStatusCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, GenerationStatus{CanGenerate: true})
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx)
	assert.False(t, ok)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var cache *StatusCache
	ctx := context.Background()

	_, ok := cache.Get(ctx)
	assert.False(t, ok)
	cache.Set(ctx, GenerationStatus{})
	cache.Invalidate(ctx)
}

func TestServiceInvalidatesCacheOnTransition(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := newMockRepo()
	repo.seed("2025-001", StatusDraft)
	svc := NewService(repo, cache, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.CheckGenerationStatus(ctx)
	require.NoError(t, err)
	assert.False(t, first.CanGenerate)

	cached, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, first, cached)

	_, err = svc.Confirm(ctx, "2025-001")
	require.NoError(t, err)

	_, ok = cache.Get(ctx)
	assert.False(t, ok, "transitions must drop the cached read model")
}
