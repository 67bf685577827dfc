package data

import (
	"testing"
	"time"

	"github.com/emzola/bookshelf/internal/validator"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeIsbn(t *testing.T) {
	tests := []struct {
		in   string
		want string
		kind int
	}{
		{"978-0-14-143951-8", "9780141439518", 13},
		{" 0 14 143951 3 ", "0141439513", 10},
		{"080442957x", "080442957X", 10},
		{"12345", "12345", 0},
		{"97801414395X8", "97801414395X8", 0},
		{"X801414395", "X801414395", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeIsbn(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, IsbnKind(got))
		})
	}
}

func TestValidateBook(t *testing.T) {
	valid := func() *Book {
		return &Book{
			Title:       "Pride and Prejudice",
			Author:      "Jane Austen",
			Isbn13:      StringOrNil("9780141439518"),
			PublishDate: time.Date(2003, 4, 29, 0, 0, 0, 0, time.UTC),
		}
	}

	v := validator.New()
	ValidateBook(v, valid())
	assert.True(t, v.Valid())

	b := valid()
	b.Isbn13 = nil
	v = validator.New()
	ValidateBook(v, b)
	assert.Contains(t, v.Errors, "isbn")

	b = valid()
	b.Title = ""
	b.Language = StringOrNil("eng")
	b.PublishDate = time.Time{}
	v = validator.New()
	ValidateBook(v, b)
	assert.Contains(t, v.Errors, "title")
	assert.Contains(t, v.Errors, "language")
	assert.Contains(t, v.Errors, "publish_date")

	b = valid()
	b.Isbn10 = StringOrNil("abcdefghij")
	b.Isbn13 = StringOrNil("97801414395X8")
	v = validator.New()
	ValidateBook(v, b)
	assert.Equal(t, "must contain only digits and an optional trailing X", v.Errors["isbn10"])
	assert.Equal(t, "must contain only digits", v.Errors["isbn13"])

	b = valid()
	b.Isbn10 = StringOrNil("080442957X")
	v = validator.New()
	ValidateBook(v, b)
	assert.True(t, v.Valid())
}

func TestStringOrNil(t *testing.T) {
	assert.Nil(t, StringOrNil(""))
	assert.Equal(t, "x", *StringOrNil("x"))
}
