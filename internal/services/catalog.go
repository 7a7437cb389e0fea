package services

import (
	"context"
	"fmt"

	"order-board-service/internal/domain"
	"order-board-service/internal/ports"
)

// Catalog serves the storefront product listing.
type Catalog struct {
	restaurants ports.RestaurantRepository
	products    ports.ProductRepository
}

func NewCatalog(restaurants ports.RestaurantRepository, products ports.ProductRepository) *Catalog {
	return &Catalog{restaurants: restaurants, products: products}
}

// AvailableProducts lists products that at least one restaurant can serve,
// in catalog order.
func (c *Catalog) AvailableProducts(ctx context.Context) ([]*domain.Product, error) {
	restaurants, err := c.restaurants.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list restaurants: %w", err)
	}
	products, err := c.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return FilterAvailable(restaurants, products), nil
}

// FilterAvailable keeps products available in at least one restaurant.
func FilterAvailable(restaurants []*domain.Restaurant, products []*domain.Product) []*domain.Product {
	stocked := make(domain.ProductSet)
	for _, r := range restaurants {
		if r == nil {
			continue
		}
		for id := range r.AvailableProducts() {
			stocked.Add(id)
		}
	}

	out := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if p != nil && stocked.Has(p.ID) {
			out = append(out, p)
		}
	}
	return out
}
