package services

import (
	"cmp"
	"slices"

	"order-board-service/internal/domain"
)

type AvailabilityRow struct {
	Product *domain.Product
	// Available[i] tells whether Restaurants[i] of the matrix can serve
	// the product right now.
	Available []bool
}

// AvailabilityMatrix is the product-by-restaurant availability grid shown in
// the manager console.
type AvailabilityMatrix struct {
	Restaurants []*domain.Restaurant
	Rows        []AvailabilityRow
}

// BuildAvailabilityMatrix lays products out against restaurants sorted by
// name. A product missing from a restaurant's menu is unavailable there.
func BuildAvailabilityMatrix(restaurants []*domain.Restaurant, products []*domain.Product) AvailabilityMatrix {
	cols := uniqueRestaurants(restaurants)
	slices.SortStableFunc(cols, func(a, b *domain.Restaurant) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	rows := make([]AvailabilityRow, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		row := AvailabilityRow{Product: p, Available: make([]bool, len(cols))}
		for i, r := range cols {
			row.Available[i] = r.Menu[p.ID]
		}
		rows = append(rows, row)
	}

	return AvailabilityMatrix{Restaurants: cols, Rows: rows}
}
