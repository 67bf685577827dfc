package data

import "time"

// UserBook defines a user's personal library entry for a catalog book.
type UserBook struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"-" db:"user_id"`
	BookID    string     `json:"book_id" db:"book_id"`
	CreatedAt time.Time  `json:"create_date" db:"created_at"`
	ReadDate  *time.Time `json:"read_date" db:"read_date"`
}

// UserBookEntry is the projection of a library entry returned by catalog searches.
type UserBookEntry struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Subtitle    *string    `json:"subtitle" db:"subtitle"`
	Author      string     `json:"author" db:"author"`
	Language    *string    `json:"language" db:"language"`
	PublishDate time.Time  `json:"publish_date" db:"publish_date"`
	CreatedAt   time.Time  `json:"create_date" db:"created_at"`
	ReadDate    *time.Time `json:"read_date" db:"read_date"`
	RatingSum   int64      `json:"-" db:"rating_sum"`
	RatingCount int        `json:"-" db:"rating_count"`
	Rating      *float64   `json:"rating" db:"-"`
	Thumbnail   *string    `json:"thumbnail" db:"thumbnail_url"`
	Tags        []*Tag     `json:"tags" db:"-"`
}

// UserBookDetail is the full view of a single library entry.
type UserBookDetail struct {
	ID        string        `json:"id"`
	Book      *Book         `json:"book"`
	CreatedAt time.Time     `json:"create_date"`
	ReadDate  *time.Time    `json:"read_date"`
	Tags      []*Tag        `json:"tags"`
	Rating    RatingSummary `json:"rating"`
}

// UserBookCriteria defines the optional filters of a catalog search. All set
// filters are combined with a logical AND.
type UserBookCriteria struct {
	Search string
	Read   *bool
	Tag    string
}

// Sort columns of a catalog search, addressed by index.
var UserBookSortSafeList = []string{
	"title",
	"subtitle",
	"author",
	"language",
	"publish_date",
	"created_at",
	"read_date",
	"rating",
}
