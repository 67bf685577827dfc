package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

// authenticationTokenTTL is the lifetime of an authentication token.
const authenticationTokenTTL = 24 * time.Hour

type tokens interface {
	CreateAuthenticationToken(ctx context.Context, username string, password string) (*data.Token, error)
	DeleteAuthenticationToken(ctx context.Context, tokenPlaintext string) error
}

// CreateAuthenticationToken service creates a new authentication token.
func (s *service) CreateAuthenticationToken(ctx context.Context, username string, password string) (*data.Token, error) {
	v := validator.New()
	v.Check(username != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrInvalidCredentials
		default:
			return nil, err
		}
	}
	match, err := user.Password.Matches(password)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	token, err := s.repo.CreateNewToken(ctx, user.ID, authenticationTokenTTL, data.ScopeAuthentication)
	if err != nil {
		return nil, err
	}
	// Expired tokens are swept on login
	s.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		n, err := s.repo.DeleteExpiredTokens(ctx)
		if err != nil {
			s.logger.PrintError(err, nil)
			return
		}
		if n > 0 {
			s.logger.PrintDebug("expired tokens deleted", map[string]string{"count": fmt.Sprint(n)})
		}
	})
	return token, nil
}

// DeleteAuthenticationToken service revokes a single authentication token.
func (s *service) DeleteAuthenticationToken(ctx context.Context, tokenPlaintext string) error {
	err := s.repo.DeleteToken(ctx, data.ScopeAuthentication, tokenPlaintext)
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
