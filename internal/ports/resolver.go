package ports

import (
	"context"

	"order-board-service/internal/domain"
)

// Contract for turning an address into coordinates using an external
// geocoder. (nil, nil) means the geocoder knows no such place.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*domain.Coordinates, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ctx context.Context, address string) (*domain.Coordinates, error)

func (f ResolverFunc) Resolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	return f(ctx, address)
}
