package service

import (
	"context"
	"errors"
	"strings"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

type tags interface {
	CreateTag(ctx context.Context, requestBody dto.CreateTagRequestBody, ownerID string) (*data.Tag, error)
	ListTags(ctx context.Context, ownerID string) ([]*data.Tag, error)
	UpdateTag(ctx context.Context, tagID, ownerID string, requestBody dto.UpdateTagRequestBody) (*data.Tag, error)
	DeleteTag(ctx context.Context, tagID, ownerID string) error
}

// CreateTag service creates a tag for ownerID. Tag names are unique per owner.
func (s *service) CreateTag(ctx context.Context, requestBody dto.CreateTagRequestBody, ownerID string) (*data.Tag, error) {
	tag := &data.Tag{
		UserID: ownerID,
		Name:   strings.TrimSpace(requestBody.Name),
		Color:  requestBody.Color,
	}
	if tag.Color == "" {
		tag.Color = data.DefaultTagColor
	}
	v := validator.New()
	v.Struct(requestBody)
	if data.ValidateTag(v, tag); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	err := s.repo.CreateTag(ctx, tag)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRecord):
			return nil, ErrDuplicateRecord
		default:
			return nil, err
		}
	}
	return tag, nil
}

// ListTags service retrieves all tags of ownerID ordered by name.
func (s *service) ListTags(ctx context.Context, ownerID string) ([]*data.Tag, error) {
	return s.repo.GetAllTagsForUser(ctx, ownerID)
}

// UpdateTag service renames or recolors a tag of ownerID.
func (s *service) UpdateTag(ctx context.Context, tagID, ownerID string, requestBody dto.UpdateTagRequestBody) (*data.Tag, error) {
	var tag *data.Tag
	err := s.repo.Transact(ctx, func(tx repository.Repository) error {
		var err error
		tag, err = tx.GetTag(ctx, tagID, ownerID)
		if err != nil {
			return err
		}
		if requestBody.Name != nil {
			tag.Name = strings.TrimSpace(*requestBody.Name)
		}
		if requestBody.Color != nil {
			tag.Color = *requestBody.Color
		}
		v := validator.New()
		v.Struct(requestBody)
		if data.ValidateTag(v, tag); !v.Valid() {
			return failedValidation(v.Errors)
		}
		return tx.UpdateTag(ctx, tag)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		case errors.Is(err, repository.ErrDuplicateRecord):
			return nil, ErrDuplicateRecord
		default:
			return nil, err
		}
	}
	return tag, nil
}

// DeleteTag service deletes a tag of ownerID and detaches it from every library entry.
func (s *service) DeleteTag(ctx context.Context, tagID, ownerID string) error {
	err := s.repo.Transact(ctx, func(tx repository.Repository) error {
		return tx.DeleteTag(ctx, tagID, ownerID)
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
