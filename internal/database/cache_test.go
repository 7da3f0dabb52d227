package database

import (
	"context"
	"testing"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger, _ := test.NewNullLogger()
	return NewCache(client, logger), mr
}

func TestCache_SearchResults(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	key := SearchKey("What is AI?", 5, 4)

	var got []models.SearchResultView
	err := cache.GetCachedSearchResults(ctx, key, &got)
	assert.True(t, IsMiss(err))

	want := []models.SearchResultView{{ID: "doc_1", Title: "Test", Score: 0.5, Snippet: "AI is useful..."}}
	require.NoError(t, cache.CacheSearchResults(ctx, key, want, time.Minute))

	require.NoError(t, cache.GetCachedSearchResults(ctx, key, &got))
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	assert.True(t, IsMiss(cache.GetCachedSearchResults(ctx, key, &got)))
}

func TestSearchKey(t *testing.T) {
	assert.Equal(t, SearchKey("What is  AI?", 5, 4), SearchKey(" what is ai? ", 5, 4))
	assert.NotEqual(t, SearchKey("ai", 5, 4), SearchKey("ai", 5, 5))
	assert.NotEqual(t, SearchKey("ai", 5, 4), SearchKey("ai", 3, 4))
}

func TestCache_ServicesHealth(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.GetCachedServicesHealth(ctx)
	assert.True(t, IsMiss(err))

	health := &models.ServicesHealthResponse{
		Status:    "degraded",
		Timestamp: "2024-01-01T00:00:00Z",
		Services: map[string]models.ServiceStatus{
			"redis":    {Status: "healthy", ResponseTime: 1},
			"database": {Status: "unhealthy", Error: "not configured"},
		},
	}
	require.NoError(t, cache.CacheServicesHealth(ctx, health, time.Minute))

	got, err := cache.GetCachedServicesHealth(ctx)
	require.NoError(t, err)
	assert.Equal(t, health, got)
}

func TestCache_NilIsEmpty(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cache := NewCache(nil, logger)
	assert.Nil(t, cache)

	ctx := context.Background()
	assert.NoError(t, cache.CacheSearchResults(ctx, "k", []string{"x"}, time.Minute))

	var out []string
	assert.True(t, IsMiss(cache.GetCachedSearchResults(ctx, "k", &out)))
	_, err := cache.GetCachedServicesHealth(ctx)
	assert.True(t, IsMiss(err))
}
