package services

import "order-board-service/internal/domain"

// RestaurantMenu is a restaurant's available-product set as seen by the
// matcher. A nil Available set is treated as empty.
type RestaurantMenu struct {
	RestaurantID int64
	Available    domain.ProductSet
}

// Matchable returns the ids of restaurants whose available products cover
// every product in orderProducts, in input order. An empty orderProducts
// matches every restaurant.
func Matchable(orderProducts domain.ProductSet, restaurants []RestaurantMenu) []int64 {
	out := make([]int64, 0, len(restaurants))
	for _, r := range restaurants {
		if r.Available.Covers(orderProducts) {
			out = append(out, r.RestaurantID)
		}
	}
	return out
}
