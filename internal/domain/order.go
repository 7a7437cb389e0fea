package domain

import "time"

type OrderStatus string

const (
	StatusUnprocessed OrderStatus = "UNPROCESSED"
	StatusCooking     OrderStatus = "COOKING"
	StatusDelivering  OrderStatus = "DELIVERING"
	StatusProcessed   OrderStatus = "PROCESSED"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentEpay PaymentMethod = "EPAY"
)

var statusLabels = map[OrderStatus]string{
	StatusUnprocessed: "Unprocessed",
	StatusCooking:     "Cooking",
	StatusDelivering:  "Out for delivery",
	StatusProcessed:   "Processed",
}

var paymentLabels = map[PaymentMethod]string{
	PaymentCash: "Cash",
	PaymentEpay: "Online",
}

// OrderLine is one product entry of an order. Quantity does not take part in
// restaurant matching.
type OrderLine struct {
	ProductID  int64
	Quantity   int
	PriceCents int64
}

// Order is a customer order. AssignedRestaurantID is nil until a manager
// picks a restaurant for it.
type Order struct {
	ID                   int64
	FirstName            string
	LastName             string
	Phone                string
	Address              string
	Status               OrderStatus
	Payment              PaymentMethod
	Comment              string
	Lines                []OrderLine
	AssignedRestaurantID *int64
	RegisteredAt         time.Time
	CalledAt             *time.Time
	DeliveredAt          *time.Time
}

// Products returns the distinct product ids requested by the order.
func (o *Order) Products() ProductSet {
	set := make(ProductSet, len(o.Lines))
	for _, l := range o.Lines {
		set.Add(l.ProductID)
	}
	return set
}

// Total returns the sum of price * quantity over all lines, in minor units.
func (o *Order) Total() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.PriceCents * int64(l.Quantity)
	}
	return total
}

func (o *Order) Assigned() bool { return o.AssignedRestaurantID != nil }

func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (p PaymentMethod) Label() string {
	if l, ok := paymentLabels[p]; ok {
		return l
	}
	return string(p)
}

// Valid reports whether p is a known payment method.
func (p PaymentMethod) Valid() bool {
	_, ok := paymentLabels[p]
	return ok
}
