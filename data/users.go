package data

import (
	"errors"
	"time"

	"github.com/emzola/bookshelf/internal/validator"
	"golang.org/x/crypto/bcrypt"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Defaults applied to new users.
const (
	DefaultLocale = "en"
	DefaultTheme  = "default"
)

var AnonymousUser = &User{}

// Check if a user instance is the anonymous user.
func (u *User) IsAnonymous() bool {
	return u == AnonymousUser
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// User defines a user model.
type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"create_date"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  password  `json:"-"`
	Locale    string    `json:"locale"`
	Theme     string    `json:"theme"`
	Role      string    `json:"role"`
	Version   int32     `json:"-"`
}

// password defines the plaintext and hashed versions of a user's password.
// The plaintext field is a *pointer* to a string, so that we're able
// to distinguish between a plaintext password not being present in the struct at
// all, versus a plaintext password which is the empty string.
type password struct {
	Plaintext *string
	Hash      []byte
}

// Set calculates the bcrypt hash of a plaintext password.
func (p *password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), 12)
	if err != nil {
		return err
	}
	p.Plaintext = &plaintextPassword
	p.Hash = hash
	return nil
}

// Matches checks whether the provided plaintext password matches the hashed
// password stored in the User model, returning true if it matches and false otherwise.
func (p *password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.Hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}

func ValidateUsername(v *validator.Validator, username string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(len(username) >= 3, "username", "must be at least 3 bytes long")
	v.Check(len(username) <= 50, "username", "must not be more than 50 bytes long")
	v.Check(validator.Matches(username, validator.UsernameRX), "username", "must only contain letters, digits and underscores")
}

func ValidateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(len(email) <= 100, "email", "must not be more than 100 bytes long")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(password) <= 50, "password", "must not be more than 50 bytes long")
}

func ValidateUser(v *validator.Validator, user *User) {
	ValidateUsername(v, user.Username)
	ValidateEmail(v, user.Email)
	v.Check(validator.In(user.Role, RoleAdmin, RoleUser), "role", "must be admin or user")
	v.Check(len(user.Locale) <= 10, "locale", "must not be more than 10 bytes long")
	v.Check(len(user.Theme) <= 50, "theme", "must not be more than 50 bytes long")
	if user.Password.Plaintext != nil {
		ValidatePasswordPlaintext(v, *user.Password.Plaintext)
	}
	if user.Password.Hash == nil {
		panic("missing password hash for user")
	}
}
