package handlers

import (
	"context"
	"net/http"

	"order-board-service/internal/api/dto"
	"order-board-service/internal/domain"
	"order-board-service/internal/platform/logger"

	"go.uber.org/zap"
)

type ProductCatalog interface {
	AvailableProducts(ctx context.Context) ([]*domain.Product, error)
}

// CatalogHandler serves the storefront product listing.
type CatalogHandler struct {
	Catalog ProductCatalog
}

// Products lists products that at least one restaurant can cook.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	products, err := h.Catalog.AvailableProducts(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "list catalog failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ProductListResponse{Products: make([]dto.ProductResponse, 0, len(products))}
	for _, p := range products {
		res.Products = append(res.Products, productResponse(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}
