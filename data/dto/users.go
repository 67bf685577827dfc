package dto

import "github.com/emzola/bookshelf/data"

// RegisterUserRequestBody defines the request body for RegisterUser service.
type RegisterUserRequestBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Locale   string `json:"locale"`
	Theme    string `json:"theme"`
}

// UpdateUserRequestBody defines the request body for UpdateUser and UpdateProfile services.
type UpdateUserRequestBody struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Locale   *string `json:"locale"`
	Theme    *string `json:"theme"`
}

// QsListUsers defines the query strings used for ListUsers service.
type QsListUsers struct {
	Filters data.Filters
}
