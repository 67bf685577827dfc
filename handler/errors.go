package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/emzola/bookshelf/service"
)

// statusByKind maps service error kinds to HTTP status codes.
var statusByKind = map[string]int{
	"ValidationError":      http.StatusUnprocessableEntity,
	"NotFound":             http.StatusNotFound,
	"AlreadyAdded":         http.StatusConflict,
	"DuplicateIsbn":        http.StatusConflict,
	"AlreadyExists":        http.StatusConflict,
	"EditConflict":         http.StatusConflict,
	"TagNotFound":          http.StatusBadRequest,
	"BadRequest":           http.StatusBadRequest,
	"LookupFailed":         http.StatusBadGateway,
	"Forbidden":            http.StatusForbidden,
	"InvalidCredentials":   http.StatusUnauthorized,
	"UnsupportedMediaType": http.StatusUnsupportedMediaType,
}

func (h *Handler) logError(r *http.Request, err error) {
	h.logger.PrintError(err, map[string]string{
		"request_method": r.Method,
		"request_url":    r.URL.String(),
	})
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, kind string, message interface{}) {
	env := envelope{"error": envelope{"type": kind, "message": message}}
	err := h.encodeJSON(w, status, env, nil)
	if err != nil {
		h.logError(r, err)
		w.WriteHeader(500)
	}
}

// serviceErrorResponse writes the response for an error returned by the service layer.
func (h *Handler) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		h.serverErrorResponse(w, r, err)
		return
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		h.errorResponse(w, r, status, kind, verr.Errors)
		return
	}
	if kind == "LookupFailed" {
		h.logError(r, err)
	}
	h.errorResponse(w, r, status, kind, err.Error())
}

func (h *Handler) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	h.errorResponse(w, r, http.StatusInternalServerError, "ServerError", message)
}

func (h *Handler) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	h.errorResponse(w, r, http.StatusNotFound, "NotFound", message)
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	h.errorResponse(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed", message)
}

func (h *Handler) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusBadRequest, "BadRequest", err.Error())
}

func (h *Handler) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	h.errorResponse(w, r, http.StatusUnprocessableEntity, "ValidationError", errors)
}

func (h *Handler) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	h.errorResponse(w, r, http.StatusTooManyRequests, "RateLimited", message)
}

func (h *Handler) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	message := "invalid authentication credentials"
	h.errorResponse(w, r, http.StatusUnauthorized, "InvalidCredentials", message)
}

func (h *Handler) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	message := "invalid or missing authentication token"
	h.errorResponse(w, r, http.StatusUnauthorized, "InvalidCredentials", message)
}

func (h *Handler) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	message := "you must be authenticated to access this resource"
	h.errorResponse(w, r, http.StatusUnauthorized, "AuthenticationRequired", message)
}

func (h *Handler) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
	message := "your user account doesn't have the necessary permissions to access this resource"
	h.errorResponse(w, r, http.StatusForbidden, "Forbidden", message)
}
