package handler

import (
	"fmt"
	"net/http"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/validator"
	"github.com/emzola/bookshelf/repository"
)

// ShowProfile godoc
// @Summary Show the profile of the authenticated user
// @Tags users
// @Produce json
// @Success 200
// @Failure 401
// @Router /v1/users/profile [get]
func (h *Handler) showProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := h.contextGetUser(r)
	err := h.encodeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateProfile godoc
// @Summary Update the profile of the authenticated user
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.UpdateUserRequestBody true "Fields to change"
// @Success 200
// @Failure 409
// @Failure 422
// @Router /v1/users/profile [patch]
func (h *Handler) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.UpdateUserRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	user, err = h.service.UpdateProfile(r.Context(), user.ID, requestBody)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// RegisterUser godoc
// @Summary Register a new user
// @Tags admin
// @Accept json
// @Produce json
// @Param body body dto.RegisterUserRequestBody true "Account of the user"
// @Success 201
// @Failure 403
// @Failure 409
// @Failure 422
// @Router /v1/admin/users [put]
func (h *Handler) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.RegisterUserRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user, err := h.service.RegisterUser(r.Context(), requestBody)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/admin/users/%s", user.Username))
	err = h.encodeJSON(w, http.StatusCreated, envelope{"user": user}, headers)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ListUsers godoc
// @Summary List the users
// @Tags admin
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Records to skip"
// @Param sort_column query string false "Sort column"
// @Param asc query bool false "Ascending order"
// @Success 200
// @Failure 403
// @Router /v1/admin/users [get]
func (h *Handler) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	var qsInput dto.QsListUsers
	v := validator.New()
	qs := r.URL.Query()
	qsInput.Filters.PageLimit = h.readInt(qs, "limit", data.DefaultPageLimit, v)
	qsInput.Filters.PageOffset = h.readInt(qs, "offset", 0, v)
	qsInput.Filters.SortSafeList = repository.UserSortSafeList
	qsInput.Filters.Sort = h.readSort(qs, "sort_column", qsInput.Filters.SortSafeList, v)
	if asc := h.readBool(qs, "asc", v); asc != nil {
		qsInput.Filters.Asc = *asc
	}
	if !v.Valid() {
		h.failedValidationResponse(w, r, v.Errors)
		return
	}
	users, metadata, err := h.service.ListUsers(r.Context(), qsInput.Filters)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"users": users, "metadata": metadata}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ShowUser godoc
// @Summary Show a user
// @Tags admin
// @Produce json
// @Param username path string true "Username"
// @Success 200
// @Failure 404
// @Router /v1/admin/users/{username} [get]
func (h *Handler) showUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), h.readParam(r, "username"))
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateUser godoc
// @Summary Update a user
// @Tags admin
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param body body dto.UpdateUserRequestBody true "Fields to change"
// @Success 200
// @Failure 404
// @Failure 409
// @Failure 422
// @Router /v1/admin/users/{username} [post]
func (h *Handler) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.UpdateUserRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user, err := h.service.UpdateUser(r.Context(), h.readParam(r, "username"), requestBody)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Administrators cannot be deleted
// @Tags admin
// @Produce json
// @Param username path string true "Username"
// @Success 200
// @Failure 403
// @Failure 404
// @Router /v1/admin/users/{username} [delete]
func (h *Handler) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteUser(r.Context(), h.readParam(r, "username"))
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"message": "user successfully deleted"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
