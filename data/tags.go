package data

import (
	"time"

	"github.com/emzola/bookshelf/internal/validator"
)

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#3a87ad"

// Tag defines a user-owned label.
type Tag struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// TagLink is a tag together with the library entry it is attached to.
type TagLink struct {
	UserBookID string `db:"user_book_id"`
	Tag
}

func ValidateTag(v *validator.Validator, tag *Tag) {
	v.Check(tag.Name != "", "name", "must be provided")
	v.Check(len(tag.Name) <= 36, "name", "must not be more than 36 bytes long")
	v.Check(validator.Matches(tag.Color, validator.ColorRX), "color", "must be a hex color such as #3a87ad")
}
