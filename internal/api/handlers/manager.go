package handlers

import (
	"context"
	"net/http"

	"order-board-service/internal/api/dto"
	"order-board-service/internal/domain"
	"order-board-service/internal/platform/logger"
	"order-board-service/internal/services"

	"go.uber.org/zap"
)

type ManagerConsole interface {
	OrderBoard(ctx context.Context) (*services.OrderBoardView, error)
	ProductAvailability(ctx context.Context) (services.AvailabilityMatrix, error)
	Restaurants(ctx context.Context) ([]*domain.Restaurant, error)
}

// ManagerHandler exposes the read-only manager console endpoints.
type ManagerHandler struct {
	Console ManagerConsole
}

// Orders renders the order board: open orders with their assigned
// restaurant or the restaurants able to cook them, nearest first.
func (h *ManagerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	view, err := h.Console.OrderBoard(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "build order board failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	names := make(map[int64]string, len(view.Restaurants))
	for _, rest := range view.Restaurants {
		if rest != nil {
			names[rest.ID] = rest.Name
		}
	}
	ref := func(id int64) dto.RestaurantRef {
		return dto.RestaurantRef{ID: id, Name: names[id]}
	}

	orders := make(map[int64]*domain.Order, len(view.Orders))
	for _, o := range view.Orders {
		if o != nil {
			orders[o.ID] = o
		}
	}

	res := dto.OrderBoardResponse{Orders: make([]dto.BoardOrderResponse, 0, len(view.Board.Entries))}
	for _, e := range view.Board.Entries {
		item := dto.BoardOrderResponse{
			ID:              e.OrderID,
			StatusLabel:     e.StatusLabel,
			PaymentLabel:    e.PaymentLabel,
			TotalCents:      e.TotalCents,
			AddressResolved: e.OriginKnown,
		}
		if o, ok := orders[e.OrderID]; ok {
			item.Status = string(o.Status)
			item.Payment = string(o.Payment)
			item.Client = o.FirstName + " " + o.LastName
			item.PhoneNumber = o.Phone
			item.Address = o.Address
			item.Comment = o.Comment
		}

		if e.AssignedRestaurantID != nil {
			assigned := ref(*e.AssignedRestaurantID)
			item.AssignedRestaurant = &assigned
		} else {
			item.Candidates = make([]dto.CandidateResponse, 0, len(e.Candidates))
			for _, c := range e.Candidates {
				item.Candidates = append(item.Candidates, dto.CandidateResponse{
					RestaurantRef: ref(c.RestaurantID),
					DistanceKm:    roundKm(c.DistanceKm),
				})
			}
			for _, c := range e.Unmeasured {
				item.Unmeasured = append(item.Unmeasured, ref(c.RestaurantID))
			}
		}

		res.Orders = append(res.Orders, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Products renders product availability per restaurant.
func (h *ManagerHandler) Products(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	m, err := h.Console.ProductAvailability(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "product availability failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ProductAvailabilityListResponse{
		Restaurants: make([]dto.RestaurantRef, 0, len(m.Restaurants)),
		Products:    make([]dto.ProductAvailabilityResponse, 0, len(m.Rows)),
	}
	for _, rest := range m.Restaurants {
		res.Restaurants = append(res.Restaurants, dto.RestaurantRef{ID: rest.ID, Name: rest.Name})
	}
	for _, row := range m.Rows {
		res.Products = append(res.Products, dto.ProductAvailabilityResponse{
			Product:   productResponse(row.Product),
			Available: row.Available,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *ManagerHandler) Restaurants(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	restaurants, err := h.Console.Restaurants(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "list restaurants failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListRestaurantsResponse{Restaurants: make([]dto.RestaurantResponse, 0, len(restaurants))}
	for _, rest := range restaurants {
		res.Restaurants = append(res.Restaurants, dto.RestaurantResponse{
			ID:           rest.ID,
			Name:         rest.Name,
			Address:      rest.Address,
			ContactPhone: rest.ContactPhone,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func productResponse(p *domain.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		Description: p.Description,
		Special:     p.Special,
	}
}
