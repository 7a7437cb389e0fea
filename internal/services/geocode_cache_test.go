package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"order-board-service/internal/adapters/cache"
	"order-board-service/internal/adapters/geocoder"
	"order-board-service/internal/domain"
	"order-board-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	tverskaya = domain.Coordinates{Lat: 55.7577, Lon: 37.6113}
	arbat     = domain.Coordinates{Lat: 55.7520, Lon: 37.5929}
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetMany(ctx context.Context, addresses []string) (map[string]domain.GeocodeEntry, error) {
	args := m.Called(ctx, addresses)
	found, _ := args.Get(0).(map[string]domain.GeocodeEntry)
	return found, args.Error(1)
}

func (m *mockStore) PutMany(ctx context.Context, entries []domain.GeocodeEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func TestGeocodeCacheEnsureIsIdempotent(t *testing.T) {
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"Moscow, Tverskaya 1": tverskaya})
	c := NewGeocodeCache()
	ctx := context.Background()

	first := c.Ensure(ctx, "Moscow, Tverskaya 1", g)
	second := c.Ensure(ctx, "  Moscow,  Tverskaya 1 ", g)

	require.NotNil(t, first)
	assert.Equal(t, tverskaya, *first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, g.Calls())

	coords, found := c.Lookup("Moscow, Tverskaya 1")
	assert.True(t, found)
	assert.Equal(t, tverskaya, *coords)
}

func TestGeocodeCacheReturnsCopies(t *testing.T) {
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"A": tverskaya})
	c := NewGeocodeCache()

	got := c.Ensure(context.Background(), "A", g)
	got.Lat = 0

	again, _ := c.Lookup("A")
	assert.Equal(t, tverskaya, *again)
}

func TestGeocodeCacheCachesMisses(t *testing.T) {
	g := geocoder.NewStaticGeocoder(nil)
	c := NewGeocodeCache()
	ctx := context.Background()

	assert.Nil(t, c.Ensure(ctx, "Nowhere 1", g))
	assert.Nil(t, c.Ensure(ctx, "Nowhere 1", g))
	assert.Equal(t, 1, g.Calls())

	coords, found := c.Lookup("Nowhere 1")
	assert.True(t, found)
	assert.Nil(t, coords)
}

func TestGeocodeCacheResolverErrorIsAbsent(t *testing.T) {
	g := geocoder.NewStaticGeocoder(nil).FailWith("Unknown Address 999", context.DeadlineExceeded)
	c := NewGeocodeCache()
	ctx := context.Background()

	assert.Nil(t, c.Ensure(ctx, "Unknown Address 999", g))
	assert.Nil(t, c.Ensure(ctx, "Unknown Address 999", g))
	assert.Equal(t, 1, g.Calls())
}

func TestGeocodeCacheResolverTimeout(t *testing.T) {
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"Slow": tverskaya}).Delay("Slow", time.Hour)
	c := NewGeocodeCache(WithResolveTimeout(20 * time.Millisecond))

	start := time.Now()
	assert.Nil(t, c.Ensure(context.Background(), "Slow", g))
	assert.Less(t, time.Since(start), 5*time.Second)

	_, found := c.Lookup("Slow")
	assert.True(t, found)
}

func TestGeocodeCacheTimeoutIgnoredByResolver(t *testing.T) {
	var calls atomic.Int32
	r := ports.ResolverFunc(func(ctx context.Context, address string) (*domain.Coordinates, error) {
		calls.Add(1)
		time.Sleep(300 * time.Millisecond)
		coords := tverskaya
		return &coords, nil
	})
	c := NewGeocodeCache(WithResolveTimeout(20 * time.Millisecond))

	start := time.Now()
	got := c.Ensure(context.Background(), "X", r)
	elapsed := time.Since(start)

	assert.Nil(t, got)
	assert.Less(t, elapsed, 200*time.Millisecond)

	// The late answer must not replace the cached absence.
	time.Sleep(400 * time.Millisecond)
	coords, found := c.Lookup("X")
	assert.True(t, found)
	assert.Nil(t, coords)
	assert.Nil(t, c.Ensure(context.Background(), "X", r))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocodeCacheResolverPanicIsAbsent(t *testing.T) {
	r := ports.ResolverFunc(func(ctx context.Context, address string) (*domain.Coordinates, error) {
		panic("upstream exploded")
	})
	c := NewGeocodeCache()

	assert.NotPanics(t, func() {
		assert.Nil(t, c.Ensure(context.Background(), "A", r))
	})
}

func TestGeocodeCacheRejectsOutOfRangeCoordinates(t *testing.T) {
	r := ports.ResolverFunc(func(ctx context.Context, address string) (*domain.Coordinates, error) {
		return &domain.Coordinates{Lat: 120, Lon: 0}, nil
	})
	c := NewGeocodeCache()

	assert.Nil(t, c.Ensure(context.Background(), "A", r))
}

func TestGeocodeCacheEmptyAddress(t *testing.T) {
	g := geocoder.NewStaticGeocoder(nil)
	c := NewGeocodeCache()

	assert.Nil(t, c.Ensure(context.Background(), "   ", g))
	c.EnsureBatch(context.Background(), []string{"", " "}, g)
	assert.Zero(t, g.Calls())

	_, found := c.Lookup("")
	assert.False(t, found)
}

func TestGeocodeCacheNilResolver(t *testing.T) {
	c := NewGeocodeCache()
	assert.Nil(t, c.Ensure(context.Background(), "A", nil))
}

func TestGeocodeCacheLookupHasNoSideEffects(t *testing.T) {
	c := NewGeocodeCache()

	coords, found := c.Lookup("Never Seen")
	assert.Nil(t, coords)
	assert.False(t, found)

	_, found = c.Lookup("Never Seen")
	assert.False(t, found)
}

func TestGeocodeCacheConcurrentEnsureSharesOneCall(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	r := ports.ResolverFunc(func(ctx context.Context, address string) (*domain.Coordinates, error) {
		calls.Add(1)
		<-release
		c := tverskaya
		return &c, nil
	})

	c := NewGeocodeCache()
	ctx := context.Background()

	const n = 32
	results := make([]*domain.Coordinates, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Ensure(ctx, "Moscow, Tverskaya 1", r)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, got := range results {
		require.NotNil(t, got)
		assert.Equal(t, tverskaya, *got)
	}
}

func TestGeocodeCacheEnsureBatchDeduplicates(t *testing.T) {
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{
		"Moscow, Tverskaya 1": tverskaya,
		"Moscow, Arbat 10":    arbat,
	})
	c := NewGeocodeCache()
	ctx := context.Background()

	c.EnsureBatch(ctx, []string{
		"Moscow, Tverskaya 1",
		"Moscow,  Tverskaya 1",
		"Moscow, Arbat 10",
		"Unknown Address 999",
		"Moscow, Tverskaya 1",
	}, g)

	assert.Equal(t, 3, g.Calls())
	assert.Equal(t, 1, g.CallsFor("Moscow, Tverskaya 1"))

	// Already cached addresses are not resolved again.
	c.EnsureBatch(ctx, []string{"Moscow, Arbat 10", "Unknown Address 999"}, g)
	assert.Equal(t, 3, g.Calls())

	coords, _ := c.Lookup("Moscow, Arbat 10")
	assert.Equal(t, arbat, *coords)
}

func TestGeocodeCacheEnsureBatchBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	r := ports.ResolverFunc(func(ctx context.Context, address string) (*domain.Coordinates, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	})

	c := NewGeocodeCache(WithConcurrency(2))

	addresses := make([]string, 8)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("Street %d", i)
	}
	c.EnsureBatch(context.Background(), addresses, r)

	assert.LessOrEqual(t, peak.Load(), int32(2))
	for _, a := range addresses {
		_, found := c.Lookup(a)
		assert.True(t, found, a)
	}
}

func TestGeocodeCacheCallerCancellationDoesNotPoisonEntry(t *testing.T) {
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"Slow": tverskaya}).Delay("Slow", 50*time.Millisecond)
	c := NewGeocodeCache()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	assert.Nil(t, c.Ensure(ctx, "Slow", g))

	require.Eventually(t, func() bool {
		coords, found := c.Lookup("Slow")
		return found && coords != nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, g.Calls())
}

func TestGeocodeCacheAbandonedFlightIsPersisted(t *testing.T) {
	store := cache.NewMemoryGeocodeStore()
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"Slow": tverskaya}).Delay("Slow", 50*time.Millisecond)
	c := NewGeocodeCache(WithStore(store))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	assert.Nil(t, c.Ensure(ctx, "Slow", g))

	require.Eventually(t, func() bool { return store.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	got, err := store.GetMany(context.Background(), []string{"Slow"})
	require.NoError(t, err)
	require.NotNil(t, got["Slow"].Coords)
	assert.Equal(t, tverskaya, *got["Slow"].Coords)
}

func TestGeocodeCacheAbandonedBatchIsPersisted(t *testing.T) {
	store := cache.NewMemoryGeocodeStore()
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"A": tverskaya, "B": arbat}).
		Delay("A", 50*time.Millisecond).
		Delay("B", 50*time.Millisecond)
	c := NewGeocodeCache(WithStore(store))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	c.EnsureBatch(ctx, []string{"A", "B"}, g)

	require.Eventually(t, func() bool { return store.Len() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestGeocodeCacheReadsThroughStore(t *testing.T) {
	store := cache.NewMemoryGeocodeStore()
	require.NoError(t, store.PutMany(context.Background(), []domain.GeocodeEntry{
		{Address: "Moscow, Tverskaya 1", Coords: &tverskaya, ResolvedAt: time.Now()},
		{Address: "Unknown Address 999", ResolvedAt: time.Now()},
	}))

	g := geocoder.NewStaticGeocoder(nil)
	c := NewGeocodeCache(WithStore(store))
	ctx := context.Background()

	got := c.Ensure(ctx, "Moscow, Tverskaya 1", g)
	require.NotNil(t, got)
	assert.Equal(t, tverskaya, *got)

	c.EnsureBatch(ctx, []string{"Unknown Address 999", "Moscow, Tverskaya 1"}, g)
	assert.Zero(t, g.Calls())
}

func TestGeocodeCacheWritesThroughStore(t *testing.T) {
	store := cache.NewMemoryGeocodeStore()
	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"A": tverskaya})
	c := NewGeocodeCache(WithStore(store))
	ctx := context.Background()

	c.EnsureBatch(ctx, []string{"A", "B"}, g)
	c.Ensure(ctx, "C", g)

	got, err := store.GetMany(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, tverskaya, *got["A"].Coords)
	assert.Nil(t, got["B"].Coords)

	// A fresh process sharing the store does not call the geocoder.
	other := NewGeocodeCache(WithStore(store))
	other.EnsureBatch(ctx, []string{"A", "B", "C"}, g)
	assert.Equal(t, 3, g.Calls())
}

func TestGeocodeCacheSurvivesStoreFailures(t *testing.T) {
	store := new(mockStore)
	store.On("GetMany", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	store.On("PutMany", mock.Anything, mock.Anything).Return(errors.New("db down"))

	g := geocoder.NewStaticGeocoder(map[string]domain.Coordinates{"A": tverskaya})
	c := NewGeocodeCache(WithStore(store))
	ctx := context.Background()

	got := c.Ensure(ctx, "A", g)
	require.NotNil(t, got)
	assert.Equal(t, tverskaya, *got)

	// The in-memory entry still answers.
	c.EnsureBatch(ctx, []string{"A"}, g)
	assert.Equal(t, 1, g.Calls())

	store.AssertCalled(t, "GetMany", mock.Anything, []string{"A"})
	store.AssertNumberOfCalls(t, "PutMany", 1)
}

func TestGeocodeCacheEnsureBatchUsesSingleStoreRead(t *testing.T) {
	store := new(mockStore)
	store.On("GetMany", mock.Anything, []string{"A", "B"}).
		Return(map[string]domain.GeocodeEntry{"A": {Address: "A", Coords: &tverskaya, ResolvedAt: time.Now()}}, nil).
		Once()
	store.On("PutMany", mock.Anything, mock.MatchedBy(func(entries []domain.GeocodeEntry) bool {
		return len(entries) == 1 && entries[0].Address == "B" && entries[0].Coords == nil
	})).Return(nil).Once()

	g := geocoder.NewStaticGeocoder(nil)
	c := NewGeocodeCache(WithStore(store))

	c.EnsureBatch(context.Background(), []string{"A", "B", "A"}, g)

	assert.Equal(t, 0, g.CallsFor("A"))
	assert.Equal(t, 1, g.CallsFor("B"))
	store.AssertExpectations(t)
}

func TestGeocodeCacheNegativeTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var calls int
	r := ports.ResolverFunc(func(ctx context.Context, address string) (*domain.Coordinates, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("rate limited")
		}
		c := tverskaya
		return &c, nil
	})

	c := NewGeocodeCache(WithNegativeTTL(time.Hour), WithClock(clock))
	ctx := context.Background()

	assert.Nil(t, c.Ensure(ctx, "A", r))

	now = now.Add(30 * time.Minute)
	assert.Nil(t, c.Ensure(ctx, "A", r))
	assert.Equal(t, 1, calls)

	now = now.Add(time.Hour)
	got := c.Ensure(ctx, "A", r)
	require.NotNil(t, got)
	assert.Equal(t, 2, calls)

	// Resolved entries never expire.
	now = now.Add(24 * time.Hour)
	assert.NotNil(t, c.Ensure(ctx, "A", r))
	assert.Equal(t, 2, calls)
}
