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

type users interface {
	RegisterUser(ctx context.Context, requestBody dto.RegisterUserRequestBody) (*data.User, error)
	GetUser(ctx context.Context, username string) (*data.User, error)
	ListUsers(ctx context.Context, filters data.Filters) ([]*data.User, data.Metadata, error)
	UpdateUser(ctx context.Context, username string, requestBody dto.UpdateUserRequestBody) (*data.User, error)
	UpdateProfile(ctx context.Context, userID string, requestBody dto.UpdateUserRequestBody) (*data.User, error)
	DeleteUser(ctx context.Context, username string) error
	GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error)
	BootstrapAdmin(ctx context.Context) error
}

// RegisterUser service registers a new user with the user role.
func (s *service) RegisterUser(ctx context.Context, requestBody dto.RegisterUserRequestBody) (*data.User, error) {
	return s.registerUser(ctx, requestBody, data.RoleUser)
}

func (s *service) registerUser(ctx context.Context, requestBody dto.RegisterUserRequestBody, role string) (*data.User, error) {
	user := &data.User{
		Username: strings.TrimSpace(requestBody.Username),
		Email:    strings.TrimSpace(requestBody.Email),
		Locale:   strings.TrimSpace(requestBody.Locale),
		Theme:    strings.TrimSpace(requestBody.Theme),
		Role:     role,
	}
	if user.Locale == "" {
		user.Locale = data.DefaultLocale
	}
	if user.Theme == "" {
		user.Theme = data.DefaultTheme
	}
	v := validator.New()
	data.ValidateUsername(v, user.Username)
	data.ValidateEmail(v, user.Email)
	if data.ValidatePasswordPlaintext(v, requestBody.Password); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	err := user.Password.Set(requestBody.Password)
	if err != nil {
		return nil, err
	}
	if data.ValidateUser(v, user); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	err = s.repo.RegisterUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRecord):
			return nil, ErrDuplicateRecord
		default:
			return nil, err
		}
	}
	return user, nil
}

// GetUser service retrieves a user by username.
func (s *service) GetUser(ctx context.Context, username string) (*data.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return user, nil
}

// ListUsers service retrieves a paginated list of users.
func (s *service) ListUsers(ctx context.Context, filters data.Filters) ([]*data.User, data.Metadata, error) {
	if filters.SortSafeList == nil {
		filters.SortSafeList = repository.UserSortSafeList
	}
	return s.repo.GetAllUsers(ctx, filters)
}

// UpdateUser service updates the account of username on behalf of an admin.
func (s *service) UpdateUser(ctx context.Context, username string, requestBody dto.UpdateUserRequestBody) (*data.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.updateUser(ctx, user, requestBody)
}

// UpdateProfile service updates the account of the authenticated user.
func (s *service) UpdateProfile(ctx context.Context, userID string, requestBody dto.UpdateUserRequestBody) (*data.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return s.updateUser(ctx, user, requestBody)
}

func (s *service) updateUser(ctx context.Context, user *data.User, requestBody dto.UpdateUserRequestBody) (*data.User, error) {
	// Update only fields with new data
	if requestBody.Email != nil {
		user.Email = strings.TrimSpace(*requestBody.Email)
	}
	if requestBody.Locale != nil {
		user.Locale = strings.TrimSpace(*requestBody.Locale)
	}
	if requestBody.Theme != nil {
		user.Theme = strings.TrimSpace(*requestBody.Theme)
	}
	v := validator.New()
	if requestBody.Password != nil {
		if data.ValidatePasswordPlaintext(v, *requestBody.Password); !v.Valid() {
			return nil, failedValidation(v.Errors)
		}
		if err := user.Password.Set(*requestBody.Password); err != nil {
			return nil, err
		}
	}
	if data.ValidateUser(v, user); !v.Valid() {
		return nil, failedValidation(v.Errors)
	}
	err := s.repo.UpdateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			return nil, ErrEditConflict
		case errors.Is(err, repository.ErrDuplicateRecord):
			return nil, ErrDuplicateRecord
		default:
			return nil, err
		}
	}
	return user, nil
}

// DeleteUser service deletes a user together with its library. Admin accounts
// cannot be deleted.
func (s *service) DeleteUser(ctx context.Context, username string) error {
	return s.repo.Transact(ctx, func(tx repository.Repository) error {
		user, err := tx.GetUserByUsername(ctx, username)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrRecordNotFound):
				return ErrRecordNotFound
			default:
				return err
			}
		}
		if user.IsAdmin() {
			return ErrNotPermitted
		}
		return tx.DeleteUser(ctx, user.ID)
	})
}

// GetUserForToken retrieves the user associated with a token.
func (s *service) GetUserForToken(ctx context.Context, tokenScope string, tokenPlaintext string) (*data.User, error) {
	v := validator.New()
	if data.ValidateTokenPlaintext(v, tokenPlaintext); !v.Valid() {
		return nil, ErrInvalidCredentials
	}
	user, err := s.repo.GetUserForToken(ctx, tokenScope, tokenPlaintext)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrInvalidCredentials
		default:
			return nil, err
		}
	}
	return user, nil
}

// BootstrapAdmin creates the configured admin account when it doesn't exist yet.
// Nothing happens without a configured admin password.
func (s *service) BootstrapAdmin(ctx context.Context) error {
	admin := s.config.Admin
	if admin.Password == "" {
		return nil
	}
	_, err := s.repo.GetUserByUsername(ctx, admin.Username)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, repository.ErrRecordNotFound):
		return err
	}
	user, err := s.registerUser(ctx, dto.RegisterUserRequestBody{
		Username: admin.Username,
		Email:    admin.Email,
		Password: admin.Password,
	}, data.RoleAdmin)
	if err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return nil
		}
		return err
	}
	s.logger.PrintInfo("admin user created", map[string]string{"username": user.Username})
	return nil
}
