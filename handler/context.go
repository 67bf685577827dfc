package handler

import (
	"context"
	"net/http"

	"github.com/emzola/bookshelf/data"
)

type contextKey string

// userContextKey is the request context key of the authenticated user.
const userContextKey = contextKey("user")

// contextSetUser returns a new copy of the request with the provided User added to the context.
func (h *Handler) contextSetUser(r *http.Request, user *data.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// contextGetUser retrieves the User from the request context. A missing user means
// the authenticate middleware didn't run, which is a programming error.
func (h *Handler) contextGetUser(r *http.Request) *data.User {
	user, ok := r.Context().Value(userContextKey).(*data.User)
	if !ok {
		panic("missing user value in request context")
	}
	return user
}
