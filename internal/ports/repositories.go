package ports

import (
	"context"

	"order-board-service/internal/domain"
)

type RestaurantRepository interface {
	// Return all restaurants with their menu availability, ordered by name.
	ListRestaurants(ctx context.Context) ([]*domain.Restaurant, error)
}

type ProductRepository interface {
	// Return all catalog products ordered by id.
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

type OrderRepository interface {
	// Return orders awaiting fulfilment together with their lines.
	ListOpenOrders(ctx context.Context) ([]*domain.Order, error)
	// Persist a new order and its lines, returning the new id.
	CreateOrder(ctx context.Context, order *domain.Order) (int64, error)
}
