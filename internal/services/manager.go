package services

import (
	"context"
	"fmt"

	"order-board-service/internal/domain"
	"order-board-service/internal/ports"
)

// OrderBoardView is a built board plus the snapshots it was built from, so
// callers can render names and addresses next to ids.
type OrderBoardView struct {
	Orders      []*domain.Order
	Restaurants []*domain.Restaurant
	Board       Board
}

// ManagerConsole loads snapshots from storage and hands them to the core.
type ManagerConsole struct {
	orders      ports.OrderRepository
	restaurants ports.RestaurantRepository
	products    ports.ProductRepository
	assembler   *BoardAssembler
	resolver    ports.Resolver
}

func NewManagerConsole(
	orders ports.OrderRepository,
	restaurants ports.RestaurantRepository,
	products ports.ProductRepository,
	assembler *BoardAssembler,
	resolver ports.Resolver,
) *ManagerConsole {
	return &ManagerConsole{
		orders:      orders,
		restaurants: restaurants,
		products:    products,
		assembler:   assembler,
		resolver:    resolver,
	}
}

func (m *ManagerConsole) OrderBoard(ctx context.Context) (*OrderBoardView, error) {
	orders, err := m.orders.ListOpenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("order board: list orders: %w", err)
	}
	restaurants, err := m.restaurants.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("order board: list restaurants: %w", err)
	}

	board := m.assembler.BuildBoard(ctx, orders, restaurants, m.resolver)

	return &OrderBoardView{Orders: orders, Restaurants: restaurants, Board: board}, nil
}

func (m *ManagerConsole) ProductAvailability(ctx context.Context) (AvailabilityMatrix, error) {
	restaurants, err := m.restaurants.ListRestaurants(ctx)
	if err != nil {
		return AvailabilityMatrix{}, fmt.Errorf("product availability: list restaurants: %w", err)
	}
	products, err := m.products.ListProducts(ctx)
	if err != nil {
		return AvailabilityMatrix{}, fmt.Errorf("product availability: list products: %w", err)
	}
	return BuildAvailabilityMatrix(restaurants, products), nil
}

func (m *ManagerConsole) Restaurants(ctx context.Context) ([]*domain.Restaurant, error) {
	restaurants, err := m.restaurants.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}
