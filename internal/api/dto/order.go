package dto

import "time"

type OrderProductRequest struct {
	Product  int64 `json:"product" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,min=1,max=999"`
}

// RegisterOrderRequest is the storefront checkout payload.
type RegisterOrderRequest struct {
	FirstName   string                `json:"firstname" validate:"required,max=50"`
	LastName    string                `json:"lastname" validate:"required,max=50"`
	PhoneNumber string                `json:"phonenumber" validate:"required,e164"`
	Address     string                `json:"address" validate:"required,max=200"`
	Payment     string                `json:"payment" validate:"omitempty,oneof=CASH EPAY"`
	Comment     string                `json:"comment" validate:"max=500"`
	Products    []OrderProductRequest `json:"products" validate:"required,min=1,dive"`
}

type OrderLineResponse struct {
	Product    int64 `json:"product"`
	Quantity   int   `json:"quantity"`
	PriceCents int64 `json:"price_cents"`
}

type RegisterOrderResponse struct {
	ID           int64               `json:"id"`
	FirstName    string              `json:"firstname"`
	LastName     string              `json:"lastname"`
	PhoneNumber  string              `json:"phonenumber"`
	Address      string              `json:"address"`
	Payment      string              `json:"payment"`
	Status       string              `json:"status"`
	TotalCents   int64               `json:"total_cents"`
	RegisteredAt time.Time           `json:"registered_at"`
	Products     []OrderLineResponse `json:"products"`
}
