package cache

import (
	"context"
	"sync"

	"order-board-service/internal/domain"
)

// MemoryGeocodeStore keeps geocode entries in process memory. Like the
// persistent stores it never overwrites a resolved entry; an absent entry
// may be replaced by a newer one.
type MemoryGeocodeStore struct {
	mu      sync.RWMutex
	entries map[string]domain.GeocodeEntry
}

func NewMemoryGeocodeStore() *MemoryGeocodeStore {
	return &MemoryGeocodeStore{entries: make(map[string]domain.GeocodeEntry)}
}

func (s *MemoryGeocodeStore) GetMany(ctx context.Context, addresses []string) (map[string]domain.GeocodeEntry, error) {
	out := make(map[string]domain.GeocodeEntry, len(addresses))

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range addresses {
		if e, ok := s.entries[a]; ok {
			out[a] = cloneEntry(e)
		}
	}
	return out, nil
}

func (s *MemoryGeocodeStore) PutMany(ctx context.Context, entries []domain.GeocodeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.Address == "" {
			continue
		}
		if old, ok := s.entries[e.Address]; ok && !replaceable(old, e) {
			continue
		}
		s.entries[e.Address] = cloneEntry(e)
	}
	return nil
}

func (s *MemoryGeocodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneEntry(e domain.GeocodeEntry) domain.GeocodeEntry {
	if e.Coords != nil {
		c := *e.Coords
		e.Coords = &c
	}
	return e
}

// replaceable reports whether next may overwrite prev under write-once rules.
func replaceable(prev, next domain.GeocodeEntry) bool {
	return !prev.Resolved() && next.ResolvedAt.After(prev.ResolvedAt)
}
