// Package storefront owns the storefront view state: the product catalog and
// one review list per displayed product card. It is the only caller of the
// backend API and the place where mutations are reflected locally.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shophub/storefront/internal/domain"
	"github.com/shophub/storefront/internal/storeapi"
	"github.com/shophub/storefront/internal/viewstate"
	apperrors "github.com/shophub/storefront/pkg/errors"
	"github.com/shophub/storefront/pkg/validator"
)

// Messages shown when a list fetch fails without a message of its own, and
// for a product with no reviews.
const (
	ProductsLoadError = "Failed to load products"
	ReviewsLoadError  = "Failed to load reviews"
	NoReviewsMessage  = "No reviews yet."
)

// Card is the review list of one product card.
type Card = viewstate.Keyed[string, domain.Review]

// cardEntry publishes a card together with a channel closed once its first
// fetch has been issued and resolved.
type cardEntry struct {
	card  *Card
	ready chan struct{}
}

// Storefront is the owning controller. Its adapters are shared by every
// caller, so list fetches run on a context detached from the caller's
// cancellation: an aborted request never turns into an errored, empty list.
type Storefront struct {
	api     storeapi.API
	logger  *slog.Logger
	catalog *viewstate.List[domain.Product]

	mu    sync.Mutex
	cards map[string]*cardEntry
}

// New creates an idle storefront. Call Start to load the catalog.
func New(api storeapi.API, logger *slog.Logger) *Storefront {
	return &Storefront{
		api:    api,
		logger: logger,
		catalog: viewstate.NewList("products", api.ListProducts,
			viewstate.WithDefaultError(ProductsLoadError),
			viewstate.WithLogger(logger),
		),
		cards: make(map[string]*cardEntry),
	}
}

// Catalog returns the product list adapter.
func (s *Storefront) Catalog() *viewstate.List[domain.Product] {
	return s.catalog
}

// Start loads the catalog once.
func (s *Storefront) Start(ctx context.Context) viewstate.State[domain.Product] {
	return s.catalog.Start(context.WithoutCancel(ctx))
}

// Refetch reloads the catalog.
func (s *Storefront) Refetch(ctx context.Context) viewstate.State[domain.Product] {
	return s.catalog.Refetch(context.WithoutCancel(ctx))
}

// Card returns the review adapter for productID, creating and starting it on
// first use. Concurrent first callers wait for that first fetch, or for their
// own ctx, whichever ends first.
func (s *Storefront) Card(ctx context.Context, productID string) (*Card, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	entry, ok := s.cards[productID]
	if !ok {
		entry = &cardEntry{
			card: viewstate.NewKeyed("reviews", s.api.ListReviews,
				viewstate.WithDefaultError(ReviewsLoadError),
				viewstate.WithLogger(s.logger),
			),
			ready: make(chan struct{}),
		}
		s.cards[productID] = entry
	}
	s.mu.Unlock()

	if !ok {
		entry.card.SetKey(context.WithoutCancel(ctx), productID)
		close(entry.ready)
		return entry.card, nil
	}

	select {
	case <-entry.ready:
	case <-ctx.Done():
	}
	return entry.card, nil
}

// RefetchCard reloads the review list of productID.
func (s *Storefront) RefetchCard(ctx context.Context, productID string) (viewstate.State[domain.Review], error) {
	card, err := s.Card(ctx, productID)
	if err != nil {
		return viewstate.State[domain.Review]{}, err
	}
	return card.Refetch(context.WithoutCancel(ctx)), nil
}

// AddProduct coerces the raw form, creates the product and reloads the
// catalog so the new product shows up with its server-assigned fields.
func (s *Storefront) AddProduct(ctx context.Context, form domain.ProductForm) (*domain.Product, error) {
	in, err := form.Input()
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	created, err := s.api.CreateProduct(ctx, in)
	if err != nil {
		return nil, mapAPIError(err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", created.ID),
		slog.String("name", created.Name),
		slog.Int64("price", created.Price),
	)

	s.Refetch(ctx)
	return created, nil
}

// DeleteProduct deletes a product and removes it from the local catalog
// without reloading. Its review card, if any, is dropped.
func (s *Storefront) DeleteProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if _, err := s.api.DeleteProduct(ctx, productID); err != nil {
		return mapAPIError(err)
	}

	removed := s.catalog.Remove(func(p domain.Product) bool { return p.ID == productID })

	s.mu.Lock()
	delete(s.cards, productID)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", productID),
		slog.Int("removed_locally", removed),
	)
	return nil
}

// SubmitReview creates a review. The card's list is left as is; the review
// appears on the next refetch.
func (s *Storefront) SubmitReview(ctx context.Context, in domain.CreateReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(in.Rating) {
		return nil, apperrors.InvalidInput("rating must be one of 1, 2, 3, 4, 5")
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	review, err := s.api.CreateReview(ctx, in)
	if err != nil {
		return nil, mapAPIError(err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", in.ShoeID),
		slog.Int("rating", in.Rating),
	)
	return review, nil
}

// DeleteReview deletes a review and removes it from the product's card by
// id, without reloading the card.
func (s *Storefront) DeleteReview(ctx context.Context, productID, reviewID string) error {
	if reviewID == "" {
		return apperrors.InvalidInput("review id is required")
	}
	if _, err := s.api.DeleteReview(ctx, reviewID); err != nil {
		return mapAPIError(err)
	}

	s.mu.Lock()
	entry, ok := s.cards[productID]
	s.mu.Unlock()

	removed := 0
	if ok {
		removed = entry.card.Remove(func(r domain.Review) bool { return r.ID == reviewID })
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("product_id", productID),
		slog.Int("removed_locally", removed),
	)
	return nil
}

// mapAPIError turns a storeapi error into an AppError the HTTP surface can
// render. The message of a response failure is shown to the user as-is.
func mapAPIError(err error) error {
	switch {
	case storeapi.IsResponseFailure(err):
		return apperrors.Upstream(err.Error(), err)
	case storeapi.IsUnavailable(err):
		return apperrors.Unavailable("the shoe API is unreachable", err)
	case errors.Is(err, storeapi.ErrMissingID):
		return apperrors.InvalidInput(err.Error())
	default:
		return fmt.Errorf("call shoe API: %w", err)
	}
}
