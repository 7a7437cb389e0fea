package services

import (
	"slices"
	"testing"

	"order-board-service/internal/domain"
)

func TestMatchable(t *testing.T) {
	restaurants := []RestaurantMenu{
		{RestaurantID: 10, Available: domain.NewProductSet(1, 2, 3)},
		{RestaurantID: 20, Available: domain.NewProductSet(1)},
		{RestaurantID: 30, Available: nil},
		{RestaurantID: 40, Available: domain.NewProductSet(2, 1)},
	}

	tests := []struct {
		name  string
		order domain.ProductSet
		want  []int64
	}{
		{name: "superset only", order: domain.NewProductSet(1, 2), want: []int64{10, 40}},
		{name: "single product", order: domain.NewProductSet(1), want: []int64{10, 20, 40}},
		{name: "nobody stocks it", order: domain.NewProductSet(7), want: []int64{}},
		{name: "empty order matches all", order: domain.NewProductSet(), want: []int64{10, 20, 30, 40}},
		{name: "nil order matches all", order: nil, want: []int64{10, 20, 30, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matchable(tt.order, restaurants)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Matchable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchableScenarioOne(t *testing.T) {
	got := Matchable(domain.NewProductSet(1, 2), []RestaurantMenu{
		{RestaurantID: 1, Available: domain.NewProductSet(1, 2, 3)},
		{RestaurantID: 2, Available: domain.NewProductSet(1)},
	})
	if !slices.Equal(got, []int64{1}) {
		t.Fatalf("Matchable = %v, want [1]", got)
	}
}

func TestMatchableMonotonic(t *testing.T) {
	order := domain.NewProductSet(1, 2, 3)
	restaurants := []RestaurantMenu{
		{RestaurantID: 1, Available: domain.NewProductSet(1, 2)},
		{RestaurantID: 2, Available: domain.NewProductSet(1, 3)},
		{RestaurantID: 3, Available: domain.NewProductSet(1, 2, 3)},
	}

	before := Matchable(order, restaurants)

	// Adding a product anywhere can only grow the match list.
	for i := range restaurants {
		for _, p := range []int64{1, 2, 3, 4} {
			grown := make([]RestaurantMenu, len(restaurants))
			for j, r := range restaurants {
				set := domain.NewProductSet()
				for id := range r.Available {
					set.Add(id)
				}
				grown[j] = RestaurantMenu{RestaurantID: r.RestaurantID, Available: set}
			}
			grown[i].Available.Add(p)

			after := Matchable(order, grown)
			for _, id := range before {
				if !slices.Contains(after, id) {
					t.Fatalf("adding product %d to restaurant %d dropped restaurant %d", p, restaurants[i].RestaurantID, id)
				}
			}
		}
	}
}

func TestMatchableHasNoSideEffects(t *testing.T) {
	order := domain.NewProductSet(1)
	restaurants := []RestaurantMenu{{RestaurantID: 1, Available: domain.NewProductSet(1)}}

	Matchable(order, restaurants)

	if len(order) != 1 || len(restaurants) != 1 || len(restaurants[0].Available) != 1 {
		t.Fatalf("inputs were modified")
	}
}
