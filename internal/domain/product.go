package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderImage is shown for products that carry no image URL.
const PlaceholderImage = "https://placehold.co/600x400?text=No+Image"

// Product is a shoe listed in the catalog. Identity and AverageRating are
// assigned by the backend.
type Product struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	Price         int64     `json:"price"` // cents
	Sizes         []float64 `json:"sizes"`
	Images        ImageList `json:"images"`
	Description   string    `json:"description"`
	AverageRating float64   `json:"averageRating"`
}

// PrimaryImage returns the URL to show on the product card.
func (p Product) PrimaryImage() string {
	return p.Images.Primary()
}

// CreateProductInput is the payload for creating a product. Price and sizes
// are already numeric; coercion from form strings happens in ProductForm.
type CreateProductInput struct {
	Name        string    `json:"name" validate:"required"`
	Brand       string    `json:"brand" validate:"required"`
	Price       int64     `json:"price" validate:"gte=0"`
	Sizes       []float64 `json:"sizes" validate:"dive,gt=0"`
	Images      string    `json:"images" validate:"omitempty,url"`
	Description string    `json:"description"`
}

// ImageList holds product image URLs. The backend sends either a single URL
// string or an array of URLs, so both decode into the same list.
type ImageList []string

// UnmarshalJSON accepts null, a string or an array of strings. Blank entries
// are dropped.
func (l *ImageList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ImageList{}
		return nil
	}

	switch data[0] {
	case '"':
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*l = compact([]string{value})
		return nil
	case '[':
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*l = compact(values)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into ImageList", data)
	}
}

// MarshalJSON writes a single URL as a plain string and anything else as an
// array, matching the shape the backend accepts on create.
func (l ImageList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Primary returns the first image URL or PlaceholderImage.
func (l ImageList) Primary() string {
	if len(l) == 0 {
		return PlaceholderImage
	}
	return l[0]
}

func compact(values []string) ImageList {
	out := make(ImageList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
