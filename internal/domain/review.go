package domain

// Ratings is the fixed set of star ratings a review can carry.
var Ratings = []int{1, 2, 3, 4, 5}

// Review is a user review of a product. Timestamps are set by the backend
// and kept as opaque strings.
type Review struct {
	ID        string `json:"_id"`
	ShoeID    string `json:"shoeId"`
	UserName  string `json:"userName"`
	Rating    int    `json:"rating"`
	Review    string `json:"review"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// CreateReviewInput is the payload for creating a review.
type CreateReviewInput struct {
	ShoeID   string `json:"shoeId" validate:"required"`
	UserName string `json:"userName" validate:"required"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Review   string `json:"review"`
}

// ValidRating reports whether r is one of Ratings.
func ValidRating(r int) bool {
	for _, v := range Ratings {
		if v == r {
			return true
		}
	}
	return false
}
