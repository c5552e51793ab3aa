package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
)

func setupTestRedis(t *testing.T) (*ParkCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewParkCache(client, 5*time.Minute), mr
}

func samplePark() *domain.Park {
	avg := 3.75
	stay := domain.DurationOvernight
	desc := "Red clay climbs"
	return &domain.Park{
		ID:          "park-1",
		Name:        "Rausch Creek",
		Slug:        "rausch-creek",
		State:       "PA",
		Description: &desc,
		RatingSummary: domain.RatingSummary{
			AverageRating:          &avg,
			ReviewCount:            4,
			AverageRecommendedStay: &stay,
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestParkCache_SetGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, samplePark()))
	assert.True(t, mr.Exists("park:park-1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("park:park-1"))

	got, found, err := cache.Get(ctx, "park-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, samplePark(), got)
}

func TestParkCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, found, err := cache.Get(context.Background(), "park-404")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestParkCache_Expires(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, samplePark()))
	mr.FastForward(6 * time.Minute)

	_, found, err := cache.Get(ctx, "park-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestParkCache_Invalidate(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, samplePark()))
	require.NoError(t, cache.Invalidate(ctx, "park-1"))
	assert.False(t, mr.Exists("park:park-1"))

	assert.NoError(t, cache.Invalidate(ctx, "never-cached"))
}

func TestParkCache_CorruptEntry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("park:park-1", "{not json"))

	_, _, err := cache.Get(context.Background(), "park-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal park")
}

func TestParkCache_ServerDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, _, err := cache.Get(context.Background(), "park-1")
	assert.Error(t, err)
	assert.Error(t, cache.Invalidate(context.Background(), "park-1"))
}
