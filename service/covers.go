package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/bookdata"
	"github.com/emzola/bookshelf/internal/covers"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type coverImages interface {
	UpdateCover(ctx context.Context, userBookID, ownerID, url string) error
	GetCover(ctx context.Context, userBookID, ownerID string) (io.ReadCloser, string, error)
}

// UpdateCover service downloads the image at url and stores it as the cover of
// the book behind a library entry.
func (s *service) UpdateCover(ctx context.Context, userBookID, ownerID, url string) error {
	url = strings.TrimSpace(url)
	v := validator.New()
	v.Struct(dto.UpdateCoverRequestBody{URL: url})
	v.Check(len(url) <= 255, "url", "must not be more than 255 bytes long")
	if !v.Valid() {
		return failedValidation(v.Errors)
	}
	userBook, err := s.getUserBook(ctx, s.repo, userBookID, ownerID)
	if err != nil {
		return err
	}
	err = s.bookData.DownloadThumbnail(ctx, userBook.BookID, url)
	if err != nil {
		switch {
		case errors.Is(err, bookdata.ErrUnsupportedImage):
			return fmt.Errorf("%w: %v", ErrUnsupportedMediaType, err)
		default:
			return fmt.Errorf("%w: %v", ErrLookupFailed, err)
		}
	}
	return s.repo.Transact(ctx, func(tx repository.Repository) error {
		book, err := tx.GetBook(ctx, userBook.BookID)
		if err != nil {
			return err
		}
		book.ThumbnailURL = data.StringOrNil(url)
		return tx.UpdateBook(ctx, book)
	})
}

// GetCover service opens the stored cover of the book behind a library entry.
// The caller must close the returned reader.
func (s *service) GetCover(ctx context.Context, userBookID, ownerID string) (io.ReadCloser, string, error) {
	userBook, err := s.getUserBook(ctx, s.repo, userBookID, ownerID)
	if err != nil {
		return nil, "", err
	}
	rc, contentType, err := s.covers.Get(ctx, userBook.BookID)
	if err != nil {
		switch {
		case errors.Is(err, covers.ErrNotFound):
			return nil, "", ErrRecordNotFound
		default:
			return nil, "", err
		}
	}
	return rc, contentType, nil
}
