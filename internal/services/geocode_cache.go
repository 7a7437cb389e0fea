package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/logger"
	"order-board-service/internal/platform/metrics"
	"order-board-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultResolveTimeout = 5 * time.Second
	defaultConcurrency    = 4
)

// GeocodeCache maps normalized addresses to coordinates.
//
// Every address is sent to the resolver at most once per process: failed or
// empty resolutions are cached as absent coordinates. Concurrent requests for
// the same uncached address share one resolver call. When a store is
// configured, entries are read from it before resolving and written through
// to it afterwards.
//
// The cache is safe for concurrent use.
type GeocodeCache struct {
	store       ports.GeocodeStore
	timeout     time.Duration
	negativeTTL time.Duration
	concurrency int
	now         func() time.Time
	metrics     *metrics.Metrics

	mu      sync.RWMutex
	entries map[string]domain.GeocodeEntry
	pending []domain.GeocodeEntry

	group singleflight.Group
}

// GeocodeCacheOption configures a GeocodeCache.
type GeocodeCacheOption func(*GeocodeCache)

// WithStore persists entries in s.
func WithStore(s ports.GeocodeStore) GeocodeCacheOption {
	return func(c *GeocodeCache) { c.store = s }
}

// WithResolveTimeout bounds every resolver call.
func WithResolveTimeout(d time.Duration) GeocodeCacheOption {
	return func(c *GeocodeCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithNegativeTTL allows an absent entry to be resolved again once it is
// older than d. Zero keeps absent entries forever.
func WithNegativeTTL(d time.Duration) GeocodeCacheOption {
	return func(c *GeocodeCache) {
		if d >= 0 {
			c.negativeTTL = d
		}
	}
}

// WithConcurrency limits parallel resolver calls in EnsureBatch.
func WithConcurrency(n int) GeocodeCacheOption {
	return func(c *GeocodeCache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithClock replaces time.Now, which stamps new entries and ages absent ones.
func WithClock(now func() time.Time) GeocodeCacheOption {
	return func(c *GeocodeCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records lookups and resolver outcomes in m. Nil disables them.
func WithMetrics(m *metrics.Metrics) GeocodeCacheOption {
	return func(c *GeocodeCache) { c.metrics = m }
}

// NewGeocodeCache returns an empty cache with a 5s resolve timeout and a
// batch concurrency of 4 unless opts say otherwise.
func NewGeocodeCache(opts ...GeocodeCacheOption) *GeocodeCache {
	c := &GeocodeCache{
		timeout:     defaultResolveTimeout,
		concurrency: defaultConcurrency,
		now:         time.Now,
		entries:     make(map[string]domain.GeocodeEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the cached coordinate for address without side effects.
// found is false when the address has no entry; a found entry may still
// carry a nil coordinate from a failed resolution.
func (c *GeocodeCache) Lookup(address string) (coords *domain.Coordinates, found bool) {
	key := domain.NormalizeAddress(address)
	if key == "" {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return copyCoords(e.Coords), true
}

// Ensure returns the coordinate for address, resolving and caching it on the
// first request. It never fails; resolver errors yield nil.
func (c *GeocodeCache) Ensure(ctx context.Context, address string, resolver ports.Resolver) *domain.Coordinates {
	key := domain.NormalizeAddress(address)
	if key == "" {
		return nil
	}

	if e, ok := c.fresh(key); ok {
		c.metrics.GeocodeLookup("hit")
		return copyCoords(e.Coords)
	}

	if c.store != nil {
		c.loadFromStore(ctx, []string{key})
		if e, ok := c.fresh(key); ok {
			return copyCoords(e.Coords)
		}
	}

	e, ok := c.await(ctx, key, resolver)
	c.flush(ctx)
	if !ok {
		return nil
	}
	return copyCoords(e.Coords)
}

// EnsureBatch resolves every address that is not cached yet. Each distinct
// address reaches the resolver at most once, with at most the configured
// number of resolver calls in flight.
func (c *GeocodeCache) EnsureBatch(ctx context.Context, addresses []string, resolver ports.Resolver) {
	seen := make(map[string]struct{}, len(addresses))
	missing := make([]string, 0, len(addresses))
	for _, a := range addresses {
		key := domain.NormalizeAddress(a)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := c.fresh(key); ok {
			c.metrics.GeocodeLookup("hit")
			continue
		}
		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return
	}

	if c.store != nil {
		c.loadFromStore(ctx, missing)
		stillMissing := make([]string, 0, len(missing))
		for _, key := range missing {
			if _, ok := c.fresh(key); !ok {
				stillMissing = append(stillMissing, key)
			}
		}
		missing = stillMissing
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, key := range missing {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c.await(ctx, key, resolver)
			return nil
		})
	}
	_ = g.Wait()

	c.flush(ctx)
}

// fresh returns the in-memory entry for key if it does not need resolving.
func (c *GeocodeCache) fresh(key string) (domain.GeocodeEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return domain.GeocodeEntry{}, false
	}
	return e, !c.expired(e)
}

func (c *GeocodeCache) expired(e domain.GeocodeEntry) bool {
	if e.Resolved() || c.negativeTTL == 0 {
		return false
	}
	return c.now().Sub(e.ResolvedAt) >= c.negativeTTL
}

// loadFromStore copies persisted entries for keys into memory. Store errors
// are logged and treated as misses.
func (c *GeocodeCache) loadFromStore(ctx context.Context, keys []string) {
	found, err := c.store.GetMany(ctx, keys)
	if err != nil {
		logger.WarnContext(ctx, "geocode store read failed", zap.Int("keys", len(keys)), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range found {
		if _, ok := c.entries[key]; ok {
			continue
		}
		if c.expired(e) {
			continue
		}
		e.Address = key
		c.entries[key] = e
		c.metrics.GeocodeLookup("store_hit")
	}
}

// await joins or starts the resolution flight for key. The flight is
// detached from ctx so an impatient caller cannot poison the entry; ok is
// false when ctx ends first. The entry of an abandoned flight is still
// written to the store once the flight lands.
func (c *GeocodeCache) await(ctx context.Context, key string, resolver ports.Resolver) (domain.GeocodeEntry, bool) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.resolve(context.WithoutCancel(ctx), key, resolver), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.GeocodeEntry), true
	case <-ctx.Done():
		if c.store != nil {
			detached := context.WithoutCancel(ctx)
			go func() {
				<-ch
				c.flush(detached)
			}()
		}
		return domain.GeocodeEntry{}, false
	}
}

func (c *GeocodeCache) resolve(ctx context.Context, key string, resolver ports.Resolver) domain.GeocodeEntry {
	// A flight that finished just before this one started already did the work.
	if e, ok := c.fresh(key); ok {
		return e
	}

	c.metrics.GeocodeLookup("miss")

	if resolver == nil {
		return c.storeEntry(key, nil)
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	coords, err := callResolver(rctx, resolver, key)
	switch {
	case err != nil:
		c.metrics.ResolverCall("error")
		logger.WarnContext(ctx, "geocoder failed; caching address as unresolved",
			zap.String("address", key), zap.Error(err))
		coords = nil
	case coords == nil:
		c.metrics.ResolverCall("not_found")
		logger.DebugContext(ctx, "geocoder found nothing", zap.String("address", key))
	case !coords.Valid():
		c.metrics.ResolverCall("error")
		logger.WarnContext(ctx, "geocoder returned out-of-range coordinates",
			zap.String("address", key), zap.Float64("lat", coords.Lat), zap.Float64("lon", coords.Lon))
		coords = nil
	default:
		c.metrics.ResolverCall("found")
	}

	return c.storeEntry(key, copyCoords(coords))
}

func (c *GeocodeCache) storeEntry(key string, coords *domain.Coordinates) domain.GeocodeEntry {
	e := domain.GeocodeEntry{Address: key, Coords: coords, ResolvedAt: c.now()}

	c.mu.Lock()
	c.entries[key] = e
	if c.store != nil {
		c.pending = append(c.pending, e)
	}
	c.mu.Unlock()

	return e
}

// flush writes entries created since the last flush to the store.
func (c *GeocodeCache) flush(ctx context.Context) {
	if c.store == nil {
		return
	}

	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := c.store.PutMany(context.WithoutCancel(ctx), batch); err != nil {
		logger.WarnContext(ctx, "geocode store write failed", zap.Int("entries", len(batch)), zap.Error(err))
	}
}

var errResolverPanic = errors.New("resolver panicked")

// callResolver gives up when ctx ends even if r ignores ctx. A late answer
// from r is discarded.
func callResolver(ctx context.Context, r ports.Resolver, address string) (*domain.Coordinates, error) {
	type result struct {
		coords *domain.Coordinates
		err    error
	}

	done := make(chan result, 1)
	go func() {
		coords, err := safeResolve(ctx, r, address)
		done <- result{coords: coords, err: err}
	}()

	select {
	case res := <-done:
		return res.coords, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("resolve %q: %w", address, ctx.Err())
	}
}

func safeResolve(ctx context.Context, r ports.Resolver, address string) (coords *domain.Coordinates, err error) {
	defer func() {
		if p := recover(); p != nil {
			coords = nil
			err = fmt.Errorf("%w: %v", errResolverPanic, p)
		}
	}()
	return r.Resolve(ctx, address)
}

func copyCoords(c *domain.Coordinates) *domain.Coordinates {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
