package geocoder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"order-board-service/internal/domain"
)

// StaticGeocoder answers from a fixed address table. Unknown addresses are
// not found. It counts calls so tests can assert how often the upstream
// would have been hit.
type StaticGeocoder struct {
	mu     sync.RWMutex
	places map[string]domain.Coordinates
	errs   map[string]error
	delays map[string]time.Duration

	calls   atomic.Int64
	callsBy sync.Map // address -> *atomic.Int64
}

func NewStaticGeocoder(places map[string]domain.Coordinates) *StaticGeocoder {
	g := &StaticGeocoder{
		places: make(map[string]domain.Coordinates, len(places)),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
	for addr, c := range places {
		g.places[domain.NormalizeAddress(addr)] = c
	}
	return g
}

// FailWith makes every lookup of address return err.
func (g *StaticGeocoder) FailWith(address string, err error) *StaticGeocoder {
	g.mu.Lock()
	g.errs[domain.NormalizeAddress(address)] = err
	g.mu.Unlock()
	return g
}

// Delay makes lookups of address block for d or until ctx ends.
func (g *StaticGeocoder) Delay(address string, d time.Duration) *StaticGeocoder {
	g.mu.Lock()
	g.delays[domain.NormalizeAddress(address)] = d
	g.mu.Unlock()
	return g
}

func (g *StaticGeocoder) Resolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	key := domain.NormalizeAddress(address)

	g.calls.Add(1)
	counter, _ := g.callsBy.LoadOrStore(key, new(atomic.Int64))
	counter.(*atomic.Int64).Add(1)

	g.mu.RLock()
	c, found := g.places[key]
	err := g.errs[key]
	delay := g.delays[key]
	g.mu.RUnlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

// Calls returns the total number of Resolve calls.
func (g *StaticGeocoder) Calls() int {
	return int(g.calls.Load())
}

// CallsFor returns the number of Resolve calls for address.
func (g *StaticGeocoder) CallsFor(address string) int {
	v, ok := g.callsBy.Load(domain.NormalizeAddress(address))
	if !ok {
		return 0
	}
	return int(v.(*atomic.Int64).Load())
}
