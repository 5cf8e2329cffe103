package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shophub/storefront/internal/domain"
	"github.com/shophub/storefront/internal/storeapi"
	apperrors "github.com/shophub/storefront/pkg/errors"
	"github.com/shophub/storefront/pkg/logger"
	"github.com/shophub/storefront/pkg/validator"
)

// --- Test Helpers ---

func newTestStorefront() (*Storefront, *mockAPI) {
	api := new(mockAPI)
	return New(api, logger.Discard()), api
}

func sampleProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Air Max 90", Brand: "Nike", Price: 12999, Sizes: []float64{7, 8, 9}},
		{ID: "p2", Name: "Samba", Brand: "Adidas", Price: 9999},
		{ID: "p3", Name: "Gel-Kayano", Brand: "Asics", Price: 15999},
	}
}

func sampleReviews() []domain.Review {
	return []domain.Review{
		{ID: "r1", ShoeID: "p1", UserName: "dana", Rating: 5, Review: "comfy"},
		{ID: "r2", ShoeID: "p1", UserName: "lee", Rating: 3, Review: "runs small"},
		{ID: "r3", ShoeID: "p1", UserName: "sam", Rating: 4, Review: "good"},
	}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func productID(p domain.Product) string { return p.ID }
func reviewID(r domain.Review) string   { return r.ID }

// --- Catalog ---

func TestStart_LoadsCatalog(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListProducts", mock.Anything).Return(sampleProducts(), nil).Once()

	s := sf.Start(ctx)

	assert.False(t, s.Loading)
	assert.Nil(t, s.Error())
	assert.Len(t, s.Data, 3)

	sf.Start(ctx)
	api.AssertExpectations(t)
}

func TestStart_BackendFailure(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListProducts", mock.Anything).Return(nil, storeapi.ErrFetchProducts)

	s := sf.Start(ctx)

	assert.False(t, s.Loading)
	require.NotNil(t, s.Error())
	assert.Equal(t, "Failed to fetch products", *s.Error())
	assert.Empty(t, s.Data)
}

func TestCatalog_ReturnsSameAdapter(t *testing.T) {
	sf, _ := newTestStorefront()
	assert.Same(t, sf.Catalog(), sf.Catalog())
}

// --- AddProduct ---

func TestAddProduct_CoercesAndRefetches(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()

	want := domain.CreateProductInput{
		Name:   "Air Max 90",
		Brand:  "Nike",
		Price:  12999,
		Sizes:  []float64{7, 8, 9},
		Images: "https://cdn.example.com/a.jpg",
	}
	created := &domain.Product{ID: "p9", Name: "Air Max 90", Brand: "Nike", Price: 12999}

	api.On("CreateProduct", ctx, want).Return(created, nil).Once()
	api.On("ListProducts", mock.Anything).Return(append(sampleProducts(), *created), nil).Once()

	got, err := sf.AddProduct(ctx, domain.ProductForm{
		Name:   "Air Max 90",
		Brand:  "Nike",
		Price:  "12999",
		Sizes:  "7, 8, 9",
		Images: "https://cdn.example.com/a.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, "p9", got.ID)
	assert.Contains(t, ids(sf.Catalog().Snapshot().Data, productID), "p9")
	api.AssertExpectations(t)
}

func TestAddProduct_InvalidForm(t *testing.T) {
	sf, api := newTestStorefront()

	_, err := sf.AddProduct(context.Background(), domain.ProductForm{Name: "x", Brand: "y", Price: "twelve"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	api.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestAddProduct_ValidationFailure(t *testing.T) {
	sf, api := newTestStorefront()

	_, err := sf.AddProduct(context.Background(), domain.ProductForm{Price: "100", Sizes: "0, 8"})

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "is required", fields["brand"])
	assert.Contains(t, fields, "sizes[0]")
	api.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestAddProduct_BackendFailure(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("CreateProduct", ctx, mock.Anything).Return(nil, storeapi.ErrCreateProduct)

	_, err := sf.AddProduct(ctx, domain.ProductForm{Name: "x", Brand: "y", Price: "1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, storeapi.ErrCreateProduct)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Failed to create product", appErr.Message)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	api.AssertNotCalled(t, "ListProducts", mock.Anything)
}

// --- DeleteProduct ---

func TestDeleteProduct_RemovesLocallyWithoutReload(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListProducts", mock.Anything).Return(sampleProducts(), nil).Once()
	api.On("DeleteProduct", ctx, "p2").Return(nil, nil).Once()

	sf.Start(ctx)
	require.NoError(t, sf.DeleteProduct(ctx, "p2"))

	assert.Equal(t, []string{"p1", "p3"}, ids(sf.Catalog().Snapshot().Data, productID))
	api.AssertNumberOfCalls(t, "ListProducts", 1)
	api.AssertExpectations(t)
}

func TestDeleteProduct_DropsCard(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListReviews", mock.Anything, "p1").Return(sampleReviews(), nil).Twice()
	api.On("DeleteProduct", ctx, "p1").Return(nil, nil).Once()

	first, err := sf.Card(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, sf.DeleteProduct(ctx, "p1"))

	second, err := sf.Card(ctx, "p1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	api.AssertExpectations(t)
}

func TestDeleteProduct_FailureKeepsCatalog(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListProducts", mock.Anything).Return(sampleProducts(), nil).Once()
	api.On("DeleteProduct", ctx, "p2").Return(nil, storeapi.ErrDeleteProduct)

	sf.Start(ctx)
	err := sf.DeleteProduct(ctx, "p2")

	assert.ErrorIs(t, err, storeapi.ErrDeleteProduct)
	assert.Len(t, sf.Catalog().Snapshot().Data, 3)
}

func TestDeleteProduct_Unreachable(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	transportErr := fmt.Errorf("%w: DELETE /api/shoes/p2: %w", storeapi.ErrTransport, errors.New("connection refused"))
	api.On("DeleteProduct", ctx, "p2").Return(nil, transportErr)

	err := sf.DeleteProduct(ctx, "p2")

	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.ErrorIs(t, err, storeapi.ErrTransport)
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
}

func TestDeleteProduct_EmptyID(t *testing.T) {
	sf, api := newTestStorefront()

	err := sf.DeleteProduct(context.Background(), "")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	api.AssertNotCalled(t, "DeleteProduct", mock.Anything, mock.Anything)
}

// --- Cards and reviews ---

func TestCard_CreatedLazilyAndStarted(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListReviews", mock.Anything, "p1").Return([]domain.Review{}, nil).Once()

	card, err := sf.Card(ctx, "p1")
	require.NoError(t, err)

	s := card.Snapshot()
	assert.False(t, s.Loading)
	assert.Nil(t, s.Error())
	assert.Empty(t, s.Data)

	again, err := sf.Card(ctx, "p1")
	require.NoError(t, err)
	assert.Same(t, card, again)
	api.AssertExpectations(t)
}

func TestCard_EmptyID(t *testing.T) {
	sf, _ := newTestStorefront()
	_, err := sf.Card(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSubmitReview_DoesNotAppendLocally(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	in := domain.CreateReviewInput{ShoeID: "p1", UserName: "kim", Rating: 5, Review: "love them"}

	api.On("ListReviews", mock.Anything, "p1").Return(sampleReviews(), nil).Once()
	api.On("CreateReview", ctx, in).Return(&domain.Review{ID: "r9", ShoeID: "p1", Rating: 5}, nil).Once()

	card, err := sf.Card(ctx, "p1")
	require.NoError(t, err)

	review, err := sf.SubmitReview(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "r9", review.ID)
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(card.Snapshot().Data, reviewID))
	api.AssertExpectations(t)
}

func TestSubmitReview_RejectsRatingOutsideSet(t *testing.T) {
	sf, api := newTestStorefront()

	for _, rating := range []int{0, 6, -3} {
		_, err := sf.SubmitReview(context.Background(), domain.CreateReviewInput{ShoeID: "p1", UserName: "kim", Rating: rating})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "rating %d", rating)
	}
	api.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
}

func TestSubmitReview_RequiresShoeID(t *testing.T) {
	sf, api := newTestStorefront()

	_, err := sf.SubmitReview(context.Background(), domain.CreateReviewInput{UserName: "kim", Rating: 4})

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["shoeId"])
	api.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
}

func TestSubmitReview_BackendFailure(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("CreateReview", ctx, mock.Anything).Return(nil, storeapi.ErrCreateReview)

	_, err := sf.SubmitReview(ctx, domain.CreateReviewInput{ShoeID: "p1", UserName: "kim", Rating: 2})

	assert.ErrorIs(t, err, storeapi.ErrCreateReview)
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func TestDeleteReview_RemovesExactlyThatEntry(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListReviews", mock.Anything, "p1").Return(sampleReviews(), nil).Once()
	api.On("DeleteReview", ctx, "r2").Return(nil, nil).Once()

	card, err := sf.Card(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, sf.DeleteReview(ctx, "p1", "r2"))

	assert.Equal(t, []string{"r1", "r3"}, ids(card.Snapshot().Data, reviewID))
	api.AssertNumberOfCalls(t, "ListReviews", 1)
	api.AssertExpectations(t)
}

func TestDeleteReview_NoCardStillDeletes(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("DeleteReview", ctx, "r2").Return(nil, nil).Once()

	require.NoError(t, sf.DeleteReview(ctx, "p1", "r2"))
	api.AssertExpectations(t)
}

func TestDeleteReview_FailureKeepsList(t *testing.T) {
	sf, api := newTestStorefront()
	ctx := context.Background()
	api.On("ListReviews", mock.Anything, "p1").Return(sampleReviews(), nil).Once()
	api.On("DeleteReview", ctx, "r2").Return(nil, storeapi.ErrDeleteReview)

	card, err := sf.Card(ctx, "p1")
	require.NoError(t, err)

	err = sf.DeleteReview(ctx, "p1", "r2")
	assert.ErrorIs(t, err, storeapi.ErrDeleteReview)
	assert.Len(t, card.Snapshot().Data, 3)
}

func TestMapAPIError(t *testing.T) {
	missing := fmt.Errorf("DeleteReview: %w", storeapi.ErrMissingID)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(mapAPIError(missing)))

	decode := fmt.Errorf("%w: ListProducts: bad json", storeapi.ErrDecode)
	mapped := mapAPIError(decode)
	assert.ErrorIs(t, mapped, storeapi.ErrDecode)
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(mapped))
}
