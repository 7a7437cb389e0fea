package domain

// Candidate is a restaurant able to fulfil an order. DistanceKm is nil when
// the distance could not be computed.
type Candidate struct {
	RestaurantID int64
	DistanceKm   *float64
}

func (c Candidate) Known() bool { return c.DistanceKm != nil }
