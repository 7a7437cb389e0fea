package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"order-board-service/internal/api/dto"
	"order-board-service/internal/domain"
	"order-board-service/internal/platform/logger"
	"order-board-service/internal/services"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type OrderRegistrar interface {
	Register(ctx context.Context, in services.OrderInput) (*domain.Order, error)
}

// OrderHandler accepts storefront orders.
type OrderHandler struct {
	Intake   OrderRegistrar
	Validate *validator.Validate
}

func NewOrderHandler(intake OrderRegistrar) *OrderHandler {
	return &OrderHandler{Intake: intake, Validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (h *OrderHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RegisterOrderRequest
	if err := decodeStrict(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Address = strings.TrimSpace(req.Address)

	if err := h.Validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	in := services.OrderInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.PhoneNumber,
		Address:   req.Address,
		Payment:   domain.PaymentMethod(req.Payment),
		Comment:   req.Comment,
		Lines:     make([]services.OrderLineInput, 0, len(req.Products)),
	}
	for _, p := range req.Products {
		in.Lines = append(in.Lines, services.OrderLineInput{ProductID: p.Product, Quantity: p.Quantity})
	}

	order, err := h.Intake.Register(r.Context(), in)
	if errors.Is(err, domain.ErrInvalidOrder) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "register order failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.RegisterOrderResponse{
		ID:           order.ID,
		FirstName:    order.FirstName,
		LastName:     order.LastName,
		PhoneNumber:  order.Phone,
		Address:      order.Address,
		Payment:      string(order.Payment),
		Status:       string(order.Status),
		TotalCents:   order.Total(),
		RegisteredAt: order.RegisteredAt,
		Products:     make([]dto.OrderLineResponse, 0, len(order.Lines)),
	}
	for _, l := range order.Lines {
		res.Products = append(res.Products, dto.OrderLineResponse{
			Product:    l.ProductID,
			Quantity:   l.Quantity,
			PriceCents: l.PriceCents,
		})
	}

	writeJSON(w, r, http.StatusCreated, res)
}

// validationMessage names the first failing field the way clients sent it.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	return fmt.Sprintf("%s: failed %q validation", strings.ToLower(fe.Field()), fe.Tag())
}
