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

// ReviewHandler handles HTTP requests for the per-product review cards.
type ReviewHandler struct {
	storefront *storefront.Storefront
	logger     *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(sf *storefront.Storefront, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		storefront: sf,
		logger:     logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review. The
// product comes from the path.
type CreateReviewRequest struct {
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Review   string `json:"review"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/products/{productId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	card, err := h.storefront.Card(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviewList(card.Snapshot()))
}

// RefetchReviews handles POST /api/v1/products/{productId}/reviews/refetch
func (h *ReviewHandler) RefetchReviews(w http.ResponseWriter, r *http.Request) {
	s, err := h.storefront.RefetchCard(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviewList(s))
}

// CreateReview handles POST /api/v1/products/{productId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.storefront.SubmitReview(r.Context(), domain.CreateReviewInput{
		ShoeID:   chi.URLParam(r, "productId"),
		UserName: req.UserName,
		Rating:   req.Rating,
		Review:   req.Review,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/products/{productId}/reviews/{reviewId}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.storefront.DeleteReview(r.Context(), chi.URLParam(r, "productId"), chi.URLParam(r, "reviewId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
