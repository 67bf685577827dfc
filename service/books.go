package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type books interface {
	AddBookByIsbn(ctx context.Context, isbn, ownerID string) (string, error)
	AddBookManual(ctx context.Context, requestBody dto.AddBookManualRequestBody, ownerID string) (string, error)
	GetUserBook(ctx context.Context, userBookID, ownerID string) (*data.UserBookDetail, error)
	UpdateBook(ctx context.Context, userBookID, ownerID string, requestBody dto.UpdateBookRequestBody) error
	SetReadState(ctx context.Context, userBookID, ownerID string, read bool) error
	SetTags(ctx context.Context, userBookID, ownerID string, tagIDs []string) error
	DeleteUserBook(ctx context.Context, userBookID, ownerID string) error
	FindBooks(ctx context.Context, ownerID string, criteria data.UserBookCriteria, filters data.Filters) ([]*data.UserBookEntry, data.Metadata, error)
}

// errCatalogRace signals that a concurrent request created the same catalog
// book first; the add is retried once so it resolves to that book.
var errCatalogRace = errors.New("catalog book created concurrently")

// AddBookByIsbn service adds the book identified by isbn to the library of ownerID.
// Books missing from the catalog are looked up on the metadata service.
func (s *service) AddBookByIsbn(ctx context.Context, isbn, ownerID string) (string, error) {
	isbn = data.NormalizeIsbn(isbn)
	v := validator.New()
	if data.ValidateIsbn(v, isbn); !v.Valid() {
		return "", failedValidation(v.Errors)
	}
	var genres []string
	book, err := s.repo.GetBookByIsbn(ctx, isbn)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			// The lookup runs outside of the transaction, it may take a while.
			book, genres, err = s.bookData.SearchBook(ctx, isbn)
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrLookupFailed, err)
			}
			book.ID = ""
			// Provider metadata must satisfy the same rules as a manual entry.
			lv := validator.New()
			if data.ValidateBook(lv, book); !lv.Valid() {
				return "", fmt.Errorf("%w: incomplete metadata for isbn %s: %v", ErrLookupFailed, isbn, lv.Errors)
			}
		default:
			return "", err
		}
	}
	return s.addToLibrary(ctx, book, genres, ownerID, nil)
}

// AddBookManual service adds a manually described book to the library of ownerID.
// A catalog book already carrying one of the ISBNs is reused as is.
func (s *service) AddBookManual(ctx context.Context, requestBody dto.AddBookManualRequestBody, ownerID string) (string, error) {
	requestBody.Isbn10 = data.NormalizeIsbn(requestBody.Isbn10)
	requestBody.Isbn13 = data.NormalizeIsbn(requestBody.Isbn13)
	v := validator.New()
	v.Struct(requestBody)
	publishDate, ok := parsePublishDate(requestBody.PublishDate)
	v.Check(ok, "publish_date", "must be a date in the format 2006-01-02")
	book := &data.Book{
		Title:        strings.TrimSpace(requestBody.Title),
		Subtitle:     optional(requestBody.Subtitle),
		Author:       strings.TrimSpace(requestBody.Author),
		Description:  optional(requestBody.Description),
		Isbn10:       data.StringOrNil(requestBody.Isbn10),
		Isbn13:       data.StringOrNil(requestBody.Isbn13),
		PageCount:    requestBody.PageCount,
		Language:     optional(requestBody.Language),
		PublishDate:  publishDate,
		ThumbnailURL: optional(requestBody.ThumbnailURL),
	}
	if data.ValidateBook(v, book); !v.Valid() {
		return "", failedValidation(v.Errors)
	}
	return s.addToLibrary(ctx, book, nil, ownerID, requestBody.Tags)
}

// addToLibrary links book to the library of ownerID, creating the catalog record
// first when book has no ID. A non-nil tagIDs replaces the tags of the new entry.
func (s *service) addToLibrary(ctx context.Context, book *data.Book, genres []string, ownerID string, tagIDs []string) (string, error) {
	var (
		userBookID string
		created    bool
		err        error
	)
	for attempt := 0; attempt < 2; attempt++ {
		candidate := *book
		err = s.repo.Transact(ctx, func(tx repository.Repository) error {
			catalog, isNew, err := resolveCatalogBook(ctx, tx, &candidate, genres)
			if err != nil {
				return err
			}
			_, err = tx.GetUserBookByBook(ctx, ownerID, catalog.ID)
			switch {
			case err == nil:
				return ErrAlreadyAdded
			case !errors.Is(err, repository.ErrRecordNotFound):
				return err
			}
			userBook := &data.UserBook{UserID: ownerID, BookID: catalog.ID}
			if err := tx.CreateUserBook(ctx, userBook); err != nil {
				switch {
				case errors.Is(err, repository.ErrDuplicateRecord):
					return ErrAlreadyAdded
				default:
					return err
				}
			}
			if tagIDs != nil {
				if err := replaceTags(ctx, tx, userBook.ID, ownerID, tagIDs); err != nil {
					return err
				}
			}
			userBookID, created = userBook.ID, isNew
			*book = *catalog
			return nil
		})
		if !errors.Is(err, errCatalogRace) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, errCatalogRace) {
			return "", ErrDuplicateIsbn
		}
		return "", err
	}
	if created && book.ThumbnailURL != nil {
		bookID, thumbnailURL := book.ID, *book.ThumbnailURL
		s.background(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := s.bookData.DownloadThumbnail(ctx, bookID, thumbnailURL); err != nil {
				s.logger.PrintError(err, map[string]string{"book_id": bookID, "url": thumbnailURL})
			}
		})
	}
	return userBookID, nil
}

// resolveCatalogBook returns the catalog record for candidate: candidate itself
// when it is already stored, otherwise the book carrying its ISBN-13 or ISBN-10,
// otherwise a newly created record. The second result reports creation.
func resolveCatalogBook(ctx context.Context, tx repository.Repository, candidate *data.Book, genres []string) (*data.Book, bool, error) {
	if candidate.ID != "" {
		return candidate, false, nil
	}
	for _, isbn := range []*string{candidate.Isbn13, candidate.Isbn10} {
		if isbn == nil {
			continue
		}
		existing, err := tx.GetBookByIsbn(ctx, *isbn)
		switch {
		case err == nil:
			return existing, false, nil
		case !errors.Is(err, repository.ErrRecordNotFound):
			return nil, false, err
		}
	}
	if err := tx.CreateBook(ctx, candidate); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRecord):
			return nil, false, errCatalogRace
		default:
			return nil, false, err
		}
	}
	if len(genres) > 0 {
		if err := tx.ReplaceGenresForBook(ctx, candidate.ID, genres); err != nil {
			return nil, false, err
		}
	}
	return candidate, true, nil
}

// GetUserBook service retrieves the full view of a library entry.
func (s *service) GetUserBook(ctx context.Context, userBookID, ownerID string) (*data.UserBookDetail, error) {
	userBook, err := s.getUserBook(ctx, s.repo, userBookID, ownerID)
	if err != nil {
		return nil, err
	}
	book, err := s.repo.GetBook(ctx, userBook.BookID)
	if err != nil {
		return nil, err
	}
	book.Genres, err = s.repo.GetGenresForBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	tagsByEntry, err := s.repo.GetTagsForUserBooks(ctx, []string{userBook.ID})
	if err != nil {
		return nil, err
	}
	rating, err := s.ratingSummary(ctx, book.ID, ownerID)
	if err != nil {
		return nil, err
	}
	detail := &data.UserBookDetail{
		ID:        userBook.ID,
		Book:      book,
		CreatedAt: userBook.CreatedAt,
		ReadDate:  userBook.ReadDate,
		Tags:      tagsByEntry[userBook.ID],
		Rating:    rating,
	}
	if detail.Tags == nil {
		detail.Tags = []*data.Tag{}
	}
	return detail, nil
}

// UpdateBook service updates the catalog book behind a library entry. Only fields
// present in requestBody change. The merged book is validated before anything is
// written, and the optional tag list is reconciled in the same transaction.
func (s *service) UpdateBook(ctx context.Context, userBookID, ownerID string, requestBody dto.UpdateBookRequestBody) error {
	normalizeIsbnField(requestBody.Isbn10)
	normalizeIsbnField(requestBody.Isbn13)
	v := validator.New()
	if v.Struct(requestBody); !v.Valid() {
		return failedValidation(v.Errors)
	}
	return s.repo.Transact(ctx, func(tx repository.Repository) error {
		userBook, err := s.getUserBook(ctx, tx, userBookID, ownerID)
		if err != nil {
			return err
		}
		book, err := tx.GetBook(ctx, userBook.BookID)
		if err != nil {
			return err
		}
		oldIsbn10, oldIsbn13 := book.Isbn10, book.Isbn13
		// Update only fields with new data
		if requestBody.Title != nil {
			book.Title = strings.TrimSpace(*requestBody.Title)
		}
		if requestBody.Subtitle != nil {
			book.Subtitle = optional(*requestBody.Subtitle)
		}
		if requestBody.Author != nil {
			book.Author = strings.TrimSpace(*requestBody.Author)
		}
		if requestBody.Description != nil {
			book.Description = optional(*requestBody.Description)
		}
		if requestBody.Isbn10 != nil {
			book.Isbn10 = data.StringOrNil(*requestBody.Isbn10)
		}
		if requestBody.Isbn13 != nil {
			book.Isbn13 = data.StringOrNil(*requestBody.Isbn13)
		}
		if requestBody.PageCount != nil {
			book.PageCount = requestBody.PageCount
		}
		if requestBody.Language != nil {
			book.Language = optional(*requestBody.Language)
		}
		if requestBody.PublishDate != nil {
			publishDate, ok := parsePublishDate(*requestBody.PublishDate)
			v.Check(ok, "publish_date", "must be a date in the format 2006-01-02")
			book.PublishDate = publishDate
		}
		if requestBody.ThumbnailURL != nil {
			book.ThumbnailURL = optional(*requestBody.ThumbnailURL)
		}
		if data.ValidateBook(v, book); !v.Valid() {
			return failedValidation(v.Errors)
		}
		for _, change := range []struct{ old, new *string }{{oldIsbn10, book.Isbn10}, {oldIsbn13, book.Isbn13}} {
			if change.new == nil || (change.old != nil && *change.old == *change.new) {
				continue
			}
			existing, err := tx.GetBookByIsbn(ctx, *change.new)
			switch {
			case err == nil && existing.ID != book.ID:
				return ErrDuplicateIsbn
			case err != nil && !errors.Is(err, repository.ErrRecordNotFound):
				return err
			}
		}
		err = tx.UpdateBook(ctx, book)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicateRecord):
				return ErrDuplicateIsbn
			case errors.Is(err, repository.ErrRecordNotFound):
				return ErrRecordNotFound
			default:
				return err
			}
		}
		if requestBody.Tags != nil {
			return replaceTags(ctx, tx, userBook.ID, ownerID, *requestBody.Tags)
		}
		return nil
	})
}

// SetReadState service marks a library entry as read now, or as unread.
func (s *service) SetReadState(ctx context.Context, userBookID, ownerID string, read bool) error {
	var readDate *time.Time
	if read {
		now := time.Now()
		readDate = &now
	}
	err := s.repo.UpdateUserBookReadDate(ctx, userBookID, ownerID, readDate)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return ErrRecordNotFound
		default:
			return err
		}
	}
	return nil
}

// SetTags service replaces the tags of a library entry with exactly tagIDs.
// Nothing changes when one of the tags isn't owned by ownerID.
func (s *service) SetTags(ctx context.Context, userBookID, ownerID string, tagIDs []string) error {
	return s.repo.Transact(ctx, func(tx repository.Repository) error {
		userBook, err := s.getUserBook(ctx, tx, userBookID, ownerID)
		if err != nil {
			return err
		}
		return replaceTags(ctx, tx, userBook.ID, ownerID, tagIDs)
	})
}

// replaceTags checks that every requested tag belongs to ownerID and then
// replaces the tag links of the entry.
func replaceTags(ctx context.Context, tx repository.Repository, userBookID, ownerID string, tagIDs []string) error {
	owned, err := tx.GetAllTagsForUser(ctx, ownerID)
	if err != nil {
		return err
	}
	ownedIDs := make(map[string]bool, len(owned))
	for _, tag := range owned {
		ownedIDs[tag.ID] = true
	}
	tagIDs = uniqueIDs(tagIDs)
	for _, id := range tagIDs {
		if !ownedIDs[id] {
			return fmt.Errorf("%w: %s", ErrTagNotFound, id)
		}
	}
	return tx.ReplaceTagsForUserBook(ctx, userBookID, tagIDs)
}

// DeleteUserBook service removes a book from the library of ownerID. The catalog
// book is kept for other users.
func (s *service) DeleteUserBook(ctx context.Context, userBookID, ownerID string) error {
	err := s.repo.Transact(ctx, func(tx repository.Repository) error {
		return tx.DeleteUserBook(ctx, userBookID, ownerID)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return ErrRecordNotFound
		default:
			return err
		}
	}
	return nil
}

// FindBooks service retrieves a page of the library of ownerID. A tag name that
// doesn't resolve to one of the owner's tags is ignored.
func (s *service) FindBooks(ctx context.Context, ownerID string, criteria data.UserBookCriteria, filters data.Filters) ([]*data.UserBookEntry, data.Metadata, error) {
	if filters.SortSafeList == nil {
		filters.SortSafeList = data.UserBookSortSafeList
	}
	filter := repository.UserBookFilter{Search: criteria.Search, Read: criteria.Read}
	if name := strings.TrimSpace(criteria.Tag); name != "" {
		tag, err := s.repo.GetTagByName(ctx, ownerID, name)
		switch {
		case err == nil:
			filter.TagID = tag.ID
		case !errors.Is(err, repository.ErrRecordNotFound):
			return nil, data.Metadata{}, err
		}
	}
	return s.repo.FindUserBooks(ctx, ownerID, filter, filters)
}

// getUserBook retrieves a library entry of ownerID through repo, which may be a transaction.
func (s *service) getUserBook(ctx context.Context, repo repository.Repository, userBookID, ownerID string) (*data.UserBook, error) {
	userBook, err := repo.GetUserBook(ctx, userBookID, ownerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return userBook, nil
}
