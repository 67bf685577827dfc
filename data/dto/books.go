package dto

import "github.com/emzola/bookshelf/data"

// AddBookRequestBody defines the request body for AddBookByIsbn service.
type AddBookRequestBody struct {
	Isbn string `json:"isbn" validate:"required"`
}

// AddBookManualRequestBody defines the request body for AddBookManual service.
type AddBookManualRequestBody struct {
	Title        string   `json:"title" validate:"required,max=255"`
	Subtitle     string   `json:"subtitle" validate:"max=255"`
	Author       string   `json:"author" validate:"required,max=255"`
	Description  string   `json:"description" validate:"max=4000"`
	Isbn10       string   `json:"isbn10" validate:"omitempty,len=10"`
	Isbn13       string   `json:"isbn13" validate:"omitempty,len=13"`
	PageCount    *int64   `json:"page_count" validate:"omitempty,gte=0"`
	Language     string   `json:"language" validate:"omitempty,len=2"`
	PublishDate  string   `json:"publish_date" validate:"required,datetime=2006-01-02"`
	ThumbnailURL string   `json:"thumbnail" validate:"omitempty,max=255"`
	Tags         []string `json:"tags"`
}

// UpdateBookRequestBody defines the request body for UpdateBook service. The fields are set
// to a pointer type to allow partial updates based on whether the value if set to nil.
type UpdateBookRequestBody struct {
	Title        *string   `json:"title" validate:"omitempty,max=255"`
	Subtitle     *string   `json:"subtitle" validate:"omitempty,max=255"`
	Author       *string   `json:"author" validate:"omitempty,max=255"`
	Description  *string   `json:"description" validate:"omitempty,max=4000"`
	Isbn10       *string   `json:"isbn10" validate:"omitempty,len=10"`
	Isbn13       *string   `json:"isbn13" validate:"omitempty,len=13"`
	PageCount    *int64    `json:"page_count" validate:"omitempty,gte=0"`
	Language     *string   `json:"language" validate:"omitempty,len=2"`
	PublishDate  *string   `json:"publish_date" validate:"omitempty,datetime=2006-01-02"`
	ThumbnailURL *string   `json:"thumbnail" validate:"omitempty,max=255"`
	Tags         *[]string `json:"tags"`
}

// SetReadRequestBody defines the request body for SetReadState service.
type SetReadRequestBody struct {
	Read bool `json:"read"`
}

// SetTagsRequestBody defines the request body for SetTags service.
type SetTagsRequestBody struct {
	Tags []string `json:"tags"`
}

// UpdateCoverRequestBody defines the request body for UpdateCover service.
type UpdateCoverRequestBody struct {
	URL string `json:"url" validate:"required,url"`
}

// RateBookRequestBody defines the request body for RateBook service.
type RateBookRequestBody struct {
	Value int `json:"value" validate:"gte=1,lte=5"`
}

// QsFindBooks defines the query strings used for FindBooks service.
type QsFindBooks struct {
	Criteria data.UserBookCriteria
	Filters  data.Filters
}
