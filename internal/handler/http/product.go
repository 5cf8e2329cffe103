package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shophub/storefront/internal/domain"
	"github.com/shophub/storefront/internal/storefront"
	"github.com/shophub/storefront/pkg/httputil"
	"github.com/shophub/storefront/pkg/validator"
)

const maxBodyBytes = 1 << 20

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	storefront *storefront.Storefront
	logger     *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(sf *storefront.Storefront, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		storefront: sf,
		logger:     logger,
	}
}

// ListProducts handles GET /api/v1/products. The first call loads the
// catalog if the app has not done so yet.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	s := h.storefront.Start(r.Context())
	httputil.WriteJSON(w, http.StatusOK, productList(s))
}

// RefetchProducts handles POST /api/v1/products/refetch
func (h *ProductHandler) RefetchProducts(w http.ResponseWriter, r *http.Request) {
	s := h.storefront.Refetch(r.Context())
	httputil.WriteJSON(w, http.StatusOK, productList(s))
}

// CreateProduct handles POST /api/v1/products. The body is the raw add-item
// form; price and sizes arrive as strings.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var form domain.ProductForm
	if err := validator.DecodeAndValidate(r, &form); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.storefront.AddProduct(r.Context(), form)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: toProductResponse(*product)})
}

// DeleteProduct handles DELETE /api/v1/products/{productId}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	if err := h.storefront.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
