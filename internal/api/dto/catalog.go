package dto

type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
	Special     bool   `json:"special"`
}

// ProductListResponse is the storefront catalog.
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
}

type ProductAvailabilityResponse struct {
	Product ProductResponse `json:"product"`
	// Available follows the order of ProductAvailabilityListResponse.Restaurants.
	Available []bool `json:"available"`
}

type ProductAvailabilityListResponse struct {
	Restaurants []RestaurantRef               `json:"restaurants"`
	Products    []ProductAvailabilityResponse `json:"products"`
}

type RestaurantResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactPhone string `json:"contact_phone"`
}

type ListRestaurantsResponse struct {
	Restaurants []RestaurantResponse `json:"restaurants"`
}
