package http

import (
	"github.com/shophub/storefront/internal/domain"
	"github.com/shophub/storefront/internal/storefront"
	"github.com/shophub/storefront/internal/viewstate"
)

// ListResponse is the JSON form of an adapter snapshot.
type ListResponse[T any] struct {
	Data         []T     `json:"data"`
	Loading      bool    `json:"loading"`
	Error        *string `json:"error"`
	EmptyMessage string  `json:"empty_message,omitempty"`
}

// ProductResponse is a product plus the fields a card displays.
type ProductResponse struct {
	domain.Product
	PrimaryImage string `json:"primary_image"`
	DisplayPrice string `json:"display_price"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		Product:      p,
		PrimaryImage: p.PrimaryImage(),
		DisplayPrice: domain.FormatPrice(p.Price),
	}
}

func productList(s viewstate.State[domain.Product]) ListResponse[ProductResponse] {
	data := make([]ProductResponse, 0, len(s.Data))
	for _, p := range s.Data {
		data = append(data, toProductResponse(p))
	}
	return ListResponse[ProductResponse]{Data: data, Loading: s.Loading, Error: s.Error()}
}

func reviewList(s viewstate.State[domain.Review]) ListResponse[domain.Review] {
	// Seq 0 means the card's first fetch has not been issued yet.
	fetched := s.Seq > 0
	resp := ListResponse[domain.Review]{Data: s.Data, Loading: s.Loading || !fetched, Error: s.Error()}
	if fetched && len(s.Data) == 0 && !s.Loading && !s.HasError {
		resp.EmptyMessage = storefront.NoReviewsMessage
	}
	return resp
}
