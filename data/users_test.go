package data

import (
	"testing"

	"github.com/emzola/bookshelf/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	var u User
	require.NoError(t, u.Password.Set("pa55word!"))

	ok, err := u.Password.Matches("pa55word!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = u.Password.Matches("wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateUser(t *testing.T) {
	u := &User{Username: "jane_doe", Email: "jane@example.com", Role: RoleUser, Locale: DefaultLocale, Theme: DefaultTheme}
	require.NoError(t, u.Password.Set("pa55word!"))

	v := validator.New()
	ValidateUser(v, u)
	assert.True(t, v.Valid())

	u.Username = "j d"
	u.Role = "root"
	v = validator.New()
	ValidateUser(v, u)
	assert.Contains(t, v.Errors, "username")
	assert.Contains(t, v.Errors, "role")
}

func TestAnonymousUser(t *testing.T) {
	assert.True(t, AnonymousUser.IsAnonymous())
	assert.False(t, (&User{}).IsAnonymous())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
