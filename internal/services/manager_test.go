package services

import (
	"context"
	"errors"
	"testing"

	"order-board-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestManagerConsoleOrderBoard(t *testing.T) {
	orders := new(mockOrderRepo)
	restaurants := new(mockRestaurantRepo)
	products := new(mockProductRepo)

	openOrders := []*domain.Order{order(1, addrOrigin, 1), order(2, addrOrigin, 1)}
	snapshot := []*domain.Restaurant{restaurant(1, addrFar, 1), restaurant(2, addrNear, 1)}
	orders.On("ListOpenOrders", mock.Anything).Return(openOrders, nil)
	restaurants.On("ListRestaurants", mock.Anything).Return(snapshot, nil)

	g := moscowGeocoder()
	console := NewManagerConsole(orders, restaurants, products, newTestAssembler(), g)

	view, err := console.OrderBoard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, openOrders, view.Orders)
	assert.Equal(t, snapshot, view.Restaurants)
	require.Len(t, view.Board.Entries, 2)
	assert.Equal(t, []int64{2, 1}, ids(view.Board.Entries[1].Candidates))

	// Both orders share one delivery address.
	assert.Equal(t, 1, g.CallsFor(addrOrigin))
}

func TestManagerConsoleOrderBoardErrors(t *testing.T) {
	orders := new(mockOrderRepo)
	restaurants := new(mockRestaurantRepo)
	orders.On("ListOpenOrders", mock.Anything).Return(nil, errors.New("db down"))

	console := NewManagerConsole(orders, restaurants, new(mockProductRepo), newTestAssembler(), nil)

	_, err := console.OrderBoard(context.Background())
	require.Error(t, err)
	restaurants.AssertNotCalled(t, "ListRestaurants", mock.Anything)
}

func TestManagerConsoleProductAvailability(t *testing.T) {
	restaurants := new(mockRestaurantRepo)
	products := new(mockProductRepo)
	restaurants.On("ListRestaurants", mock.Anything).Return([]*domain.Restaurant{restaurant(1, addrNear, 1)}, nil)
	products.On("ListProducts", mock.Anything).Return(catalog(), nil)

	console := NewManagerConsole(new(mockOrderRepo), restaurants, products, newTestAssembler(), nil)

	m, err := console.ProductAvailability(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Rows, 2)
	assert.Equal(t, []bool{true}, m.Rows[0].Available)
	assert.Equal(t, []bool{false}, m.Rows[1].Available)
}
