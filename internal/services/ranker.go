package services

import (
	"cmp"
	"slices"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/geo"
)

// RankInput is a matched restaurant and its resolved coordinate, if any.
type RankInput struct {
	RestaurantID int64
	Coords       *domain.Coordinates
}

// Ranking is the outcome of ranking an order's candidates.
//
// When at least one distance is known, Candidates holds only the measured
// restaurants sorted nearest first and Unmeasured holds the rest in input
// order. When no distance is known, Candidates holds every restaurant in
// input order and Unmeasured is empty.
type Ranking struct {
	Candidates []domain.Candidate
	Unmeasured []domain.Candidate
}

// Rank orders candidates by great-circle distance from origin. Ties are
// broken by restaurant id ascending. A nil origin makes every distance
// unknown.
func Rank(origin *domain.Coordinates, inputs []RankInput) Ranking {
	all := make([]domain.Candidate, 0, len(inputs))
	known := 0
	for _, in := range inputs {
		c := domain.Candidate{RestaurantID: in.RestaurantID}
		if origin != nil && in.Coords != nil {
			if km, ok := geo.Haversine(*origin, *in.Coords); ok {
				c.DistanceKm = &km
				known++
			}
		}
		all = append(all, c)
	}

	if known == 0 {
		return Ranking{Candidates: all, Unmeasured: []domain.Candidate{}}
	}

	measured := make([]domain.Candidate, 0, known)
	unmeasured := make([]domain.Candidate, 0, len(all)-known)
	for _, c := range all {
		if c.Known() {
			measured = append(measured, c)
		} else {
			unmeasured = append(unmeasured, c)
		}
	}

	slices.SortStableFunc(measured, func(a, b domain.Candidate) int {
		if d := cmp.Compare(*a.DistanceKm, *b.DistanceKm); d != 0 {
			return d
		}
		return cmp.Compare(a.RestaurantID, b.RestaurantID)
	})

	return Ranking{Candidates: measured, Unmeasured: unmeasured}
}
