package cache

import (
	"context"
	"testing"
	"time"

	"order-board-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, negativeTTL time.Duration) (*RedisGeocodeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGeocodeStore(client, negativeTTL), mr
}

func TestRedisGeocodeStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutMany(ctx, []domain.GeocodeEntry{
		{Address: "Moscow, Tverskaya 1", Coords: &domain.Coordinates{Lat: 55.75, Lon: 37.61}, ResolvedAt: ts},
		{Address: "Unknown Address 999", ResolvedAt: ts},
	}))
	assert.True(t, mr.Exists("geocode:Moscow, Tverskaya 1"))

	got, err := store.GetMany(ctx, []string{"Moscow, Tverskaya 1", "Unknown Address 999", "Elsewhere"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, &domain.Coordinates{Lat: 55.75, Lon: 37.61}, got["Moscow, Tverskaya 1"].Coords)
	assert.True(t, got["Moscow, Tverskaya 1"].ResolvedAt.Equal(ts))
	assert.Nil(t, got["Unknown Address 999"].Coords)
	assert.Equal(t, "Unknown Address 999", got["Unknown Address 999"].Address)
}

func TestRedisGeocodeStoreIsWriteOnce(t *testing.T) {
	store, _ := newRedisStore(t, 0)
	ctx := context.Background()

	first := domain.GeocodeEntry{Address: "A", Coords: &domain.Coordinates{Lat: 1, Lon: 2}, ResolvedAt: time.Now()}
	second := domain.GeocodeEntry{Address: "A", Coords: &domain.Coordinates{Lat: 3, Lon: 4}, ResolvedAt: time.Now()}

	require.NoError(t, store.PutMany(ctx, []domain.GeocodeEntry{first}))
	require.NoError(t, store.PutMany(ctx, []domain.GeocodeEntry{second}))

	got, err := store.GetMany(ctx, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, &domain.Coordinates{Lat: 1, Lon: 2}, got["A"].Coords)
}

func TestRedisGeocodeStoreExpiresAbsentEntries(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.PutMany(ctx, []domain.GeocodeEntry{
		{Address: "Nowhere", ResolvedAt: time.Now()},
		{Address: "Somewhere", Coords: &domain.Coordinates{Lat: 1, Lon: 1}, ResolvedAt: time.Now()},
	}))

	assert.Equal(t, time.Hour, mr.TTL("geocode:Nowhere"))
	assert.Zero(t, mr.TTL("geocode:Somewhere"))

	mr.FastForward(2 * time.Hour)

	got, err := store.GetMany(ctx, []string{"Nowhere", "Somewhere"})
	require.NoError(t, err)
	assert.NotContains(t, got, "Nowhere")
	assert.Contains(t, got, "Somewhere")
}

func TestRedisGeocodeStoreSkipsCorruptValue(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	ctx := context.Background()
	require.NoError(t, mr.Set("geocode:Bad", "{not json"))
	require.NoError(t, store.PutMany(ctx, []domain.GeocodeEntry{
		{Address: "Good", Coords: &domain.Coordinates{Lat: 55.75, Lon: 37.61}, ResolvedAt: time.Now()},
	}))

	got, err := store.GetMany(ctx, []string{"Bad", "Good"})
	require.NoError(t, err)
	assert.NotContains(t, got, "Bad")
	require.Contains(t, got, "Good")
	assert.Equal(t, 55.75, got["Good"].Coords.Lat)
}

func TestRedisGeocodeStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	mr.Close()

	_, err := store.GetMany(context.Background(), []string{"A"})
	require.Error(t, err)
}
