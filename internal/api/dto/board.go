package dto

type RestaurantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CandidateResponse is a restaurant able to cook the whole order. DistanceKm
// is null when the distance is unknown.
type CandidateResponse struct {
	RestaurantRef
	DistanceKm *float64 `json:"distance_km"`
}

type BoardOrderResponse struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	StatusLabel        string              `json:"status_label"`
	Payment            string              `json:"payment"`
	PaymentLabel       string              `json:"payment_label"`
	TotalCents         int64               `json:"total_cents"`
	Client             string              `json:"client"`
	PhoneNumber        string              `json:"phonenumber"`
	Address            string              `json:"address"`
	Comment            string              `json:"comment"`
	AddressResolved    bool                `json:"address_resolved"`
	AssignedRestaurant *RestaurantRef      `json:"assigned_restaurant,omitempty"`
	Candidates         []CandidateResponse `json:"candidates,omitempty"`
	Unmeasured         []RestaurantRef     `json:"unmeasured,omitempty"`
}

type OrderBoardResponse struct {
	Orders []BoardOrderResponse `json:"orders"`
}
