package services

import (
	"context"
	"fmt"
	"time"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/logger"
	"order-board-service/internal/platform/obs"
	"order-board-service/internal/ports"

	"go.uber.org/zap"
)

type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

// OrderInput is a customer order after transport-level validation.
type OrderInput struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	Payment   domain.PaymentMethod
	Comment   string
	Lines     []OrderLineInput
}

// OrderIntake stores new customer orders and warms the geocode cache with
// their delivery address so the manager board does not wait on it later.
type OrderIntake struct {
	orders   ports.OrderRepository
	products ports.ProductRepository
	cache    *GeocodeCache
	resolver ports.Resolver
	now      func() time.Time
}

func NewOrderIntake(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	cache *GeocodeCache,
	resolver ports.Resolver,
) *OrderIntake {
	return &OrderIntake{
		orders:   orders,
		products: products,
		cache:    cache,
		resolver: resolver,
		now:      time.Now,
	}
}

// Register validates in against the catalog, stores the order and resolves
// its delivery address. Lines are priced from the current catalog. A
// geocoding failure never fails registration.
func (s *OrderIntake) Register(ctx context.Context, in OrderInput) (_ *domain.Order, err error) {
	defer obs.Time(ctx, "order.register")(&err)

	address := domain.NormalizeAddress(in.Address)
	if address == "" {
		return nil, fmt.Errorf("register order: %w: address is empty", domain.ErrInvalidOrder)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("register order: %w: no products", domain.ErrInvalidOrder)
	}

	payment := in.Payment
	if payment == "" {
		payment = domain.PaymentEpay
	}
	if !payment.Valid() {
		return nil, fmt.Errorf("register order: %w: unknown payment method %q", domain.ErrInvalidOrder, payment)
	}

	catalog, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("register order: list products: %w", err)
	}
	prices := make(map[int64]int64, len(catalog))
	for _, p := range catalog {
		prices[p.ID] = p.PriceCents
	}

	lines := make([]domain.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		price, ok := prices[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("register order: %w: unknown product %d", domain.ErrInvalidOrder, l.ProductID)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("register order: %w: quantity of product %d must be positive", domain.ErrInvalidOrder, l.ProductID)
		}
		lines = append(lines, domain.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, PriceCents: price})
	}

	order := &domain.Order{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Address:      address,
		Status:       domain.StatusUnprocessed,
		Payment:      payment,
		Comment:      in.Comment,
		Lines:        lines,
		RegisteredAt: s.now(),
	}

	id, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("register order: create: %w", err)
	}
	order.ID = id

	if s.cache != nil {
		if s.cache.Ensure(ctx, address, s.resolver) == nil {
			logger.InfoContext(ctx, "order address not geocoded",
				zap.Int64("order_id", id), zap.String("address", address))
		}
	}

	return order, nil
}
