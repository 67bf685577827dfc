package service

import (
	"context"
	"errors"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type ratings interface {
	RateBook(ctx context.Context, userBookID, ownerID string, value int) (data.RatingSummary, error)
	GetBookRating(ctx context.Context, userBookID, ownerID string) (data.RatingSummary, error)
}

// RateBook service records the rating of ownerID for the book behind a library
// entry, replacing an earlier one, and returns the updated summary.
func (s *service) RateBook(ctx context.Context, userBookID, ownerID string, value int) (data.RatingSummary, error) {
	v := validator.New()
	if data.ValidateRating(v, value); !v.Valid() {
		return data.RatingSummary{}, failedValidation(v.Errors)
	}
	var bookID string
	err := s.repo.Transact(ctx, func(tx repository.Repository) error {
		userBook, err := s.getUserBook(ctx, tx, userBookID, ownerID)
		if err != nil {
			return err
		}
		bookID = userBook.BookID
		rating, err := tx.GetRating(ctx, bookID, ownerID)
		switch {
		case err == nil:
			rating.Value = value
			return tx.UpdateRatingValue(ctx, rating)
		case errors.Is(err, repository.ErrRecordNotFound):
			return tx.CreateRating(ctx, &data.Rating{BookID: bookID, UserID: ownerID, Value: value})
		default:
			return err
		}
	})
	if err != nil {
		return data.RatingSummary{}, err
	}
	return s.ratingSummary(ctx, bookID, ownerID)
}

// GetBookRating service retrieves the rating summary of the book behind a library entry.
func (s *service) GetBookRating(ctx context.Context, userBookID, ownerID string) (data.RatingSummary, error) {
	userBook, err := s.getUserBook(ctx, s.repo, userBookID, ownerID)
	if err != nil {
		return data.RatingSummary{}, err
	}
	return s.ratingSummary(ctx, userBook.BookID, ownerID)
}

// ratingSummary aggregates the ratings of bookID and attaches the value given by ownerID.
func (s *service) ratingSummary(ctx context.Context, bookID, ownerID string) (data.RatingSummary, error) {
	summary, err := s.repo.GetRatingSummary(ctx, bookID)
	if err != nil {
		return data.RatingSummary{}, err
	}
	rating, err := s.repo.GetRating(ctx, bookID, ownerID)
	switch {
	case err == nil:
		summary.UserValue = &rating.Value
	case !errors.Is(err, repository.ErrRecordNotFound):
		return data.RatingSummary{}, err
	}
	return summary, nil
}
