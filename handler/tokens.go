package handler

import (
	"net/http"
	"strings"

	"github.com/emzola/bookshelf/data/dto"
)

// CreateAuthenticationToken godoc
// @Summary Create a new authentication token
// @Description This endpoint creates a new authentication token
// @Tags tokens
// @Accept  json
// @Produce json
// @Param body body dto.CreateAuthenticationTokenRequestBody true "JSON payload required to create an authentication token"
// @Success 201
// @Failure 400
// @Failure 401
// @Failure 422
// @Failure 500
// @Router /v1/tokens/authentication [post]
func (h *Handler) createAuthenticationTokenHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.CreateAuthenticationTokenRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	token, err := h.service.CreateAuthenticationToken(r.Context(), requestBody.Username, requestBody.Password)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusCreated, envelope{"authentication_token": token}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteAuthenticationToken godoc
// @Summary Revoke the authentication token of the request
// @Tags tokens
// @Produce json
// @Success 200
// @Failure 401
// @Failure 500
// @Router /v1/tokens/authentication [delete]
func (h *Handler) deleteAuthenticationTokenHandler(w http.ResponseWriter, r *http.Request) {
	// authenticate has already validated the header
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	err := h.service.DeleteAuthenticationToken(r.Context(), token)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"message": "authentication token successfully deleted"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
