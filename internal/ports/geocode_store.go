package ports

import (
	"context"

	"order-board-service/internal/domain"
)

// Port: persistent storage for geocode cache entries. Keys are normalized
// addresses. Implementations are write-once per key: PutMany must not
// overwrite an existing entry.
type GeocodeStore interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.GeocodeEntry, error)
	PutMany(ctx context.Context, entries []domain.GeocodeEntry) error
}
