package data

import (
	"time"

	"github.com/emzola/bookshelf/internal/validator"
)

// Rating values are bounded to a five star scale.
const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// Rating defines one user's score for one catalog book.
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	BookID    string    `json:"book_id" db:"book_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Value     int       `json:"value" db:"value"`
	CreatedAt time.Time `json:"create_date" db:"created_at"`
}

// RatingSummary defines the aggregated ratings of a book. Average is nil when
// the book has no ratings, which is distinct from an average of zero.
type RatingSummary struct {
	Average   *float64 `json:"average"`
	Count     int      `json:"count"`
	UserValue *int     `json:"user_value,omitempty"`
}

// Mean returns sum/count, or nil when count is zero. Both the in-memory and the
// database aggregation paths go through Mean so their results are identical.
func Mean(sum int64, count int) *float64 {
	if count <= 0 {
		return nil
	}
	avg := float64(sum) / float64(count)
	return &avg
}

// AverageRating returns the arithmetic mean of the rating values, or nil for an empty set.
func AverageRating(ratings []Rating) *float64 {
	var sum int64
	for _, r := range ratings {
		sum += int64(r.Value)
	}
	return Mean(sum, len(ratings))
}

// RatingCount returns the number of ratings.
func RatingCount(ratings []Rating) int {
	return len(ratings)
}

func ValidateRating(v *validator.Validator, value int) {
	v.Check(value >= MinRatingValue, "value", "must be at least 1")
	v.Check(value <= MaxRatingValue, "value", "must not be greater than five")
}
