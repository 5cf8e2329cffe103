package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidForm is returned when a product form field cannot be coerced.
var ErrInvalidForm = errors.New("invalid product form")

// ProductForm is the add-item form as typed by the user: every field is a
// string. Sizes is a comma separated list such as "7, 8, 9".
type ProductForm struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Price       string `json:"price"`
	Sizes       string `json:"sizes"`
	Images      string `json:"images"`
	Description string `json:"description"`
}

// Input coerces the form into a CreateProductInput. Price must be a whole
// number of cents. An empty sizes field yields no sizes, but an empty entry
// inside a list ("7,,9") is rejected.
func (f ProductForm) Input() (CreateProductInput, error) {
	price, err := strconv.ParseInt(strings.TrimSpace(f.Price), 10, 64)
	if err != nil {
		return CreateProductInput{}, fmt.Errorf("%w: price %q is not a whole number", ErrInvalidForm, f.Price)
	}

	sizes, err := ParseSizes(f.Sizes)
	if err != nil {
		return CreateProductInput{}, err
	}

	return CreateProductInput{
		Name:        strings.TrimSpace(f.Name),
		Brand:       strings.TrimSpace(f.Brand),
		Price:       price,
		Sizes:       sizes,
		Images:      strings.TrimSpace(f.Images),
		Description: f.Description,
	}, nil
}

// ParseSizes splits a comma separated size list into numbers, keeping order
// and duplicates.
func ParseSizes(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return []float64{}, nil
	}

	parts := strings.Split(raw, ",")
	sizes := make([]float64, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: size %d is empty", ErrInvalidForm, i+1)
		}
		size, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: size %q is not a number", ErrInvalidForm, part)
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}
