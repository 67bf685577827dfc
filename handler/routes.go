package handler

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Routes returns the application router wrapped in the middleware chain.
func (h *Handler) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowed)

	router.HandlerFunc(http.MethodGet, "/v1/books", h.requireAuthenticatedUser(h.findBooksHandler))
	router.HandlerFunc(http.MethodPut, "/v1/books", h.requireAuthenticatedUser(h.addBookHandler))
	// httprouter can't mix static and wildcard segments, so /manual and /import go through :id
	router.HandlerFunc(http.MethodPut, "/v1/books/:id", h.requireAuthenticatedUser(h.bookActionHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", h.requireAuthenticatedUser(h.showBookHandler))
	router.HandlerFunc(http.MethodPost, "/v1/books/:id", h.requireAuthenticatedUser(h.updateBookHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/books/:id", h.requireAuthenticatedUser(h.deleteBookHandler))
	router.HandlerFunc(http.MethodPost, "/v1/books/:id/read", h.requireAuthenticatedUser(h.setReadStateHandler))
	router.HandlerFunc(http.MethodPut, "/v1/books/:id/tags", h.requireAuthenticatedUser(h.setTagsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:id/cover", h.requireAuthenticatedUser(h.showCoverHandler))
	router.HandlerFunc(http.MethodPost, "/v1/books/:id/cover", h.requireAuthenticatedUser(h.updateCoverHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:id/rating", h.requireAuthenticatedUser(h.showRatingHandler))
	router.HandlerFunc(http.MethodPost, "/v1/books/:id/rating", h.requireAuthenticatedUser(h.rateBookHandler))

	router.HandlerFunc(http.MethodGet, "/v1/tags", h.requireAuthenticatedUser(h.listTagsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/tags", h.requireAuthenticatedUser(h.createTagHandler))
	router.HandlerFunc(http.MethodPost, "/v1/tags/:id", h.requireAuthenticatedUser(h.updateTagHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/tags/:id", h.requireAuthenticatedUser(h.deleteTagHandler))

	router.HandlerFunc(http.MethodGet, "/v1/users/profile", h.requireAuthenticatedUser(h.showProfileHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/users/profile", h.requireAuthenticatedUser(h.updateProfileHandler))

	router.HandlerFunc(http.MethodPut, "/v1/admin/users", h.requireAdmin(h.registerUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/users", h.requireAdmin(h.listUsersHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/users/:username", h.requireAdmin(h.showUserHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/users/:username", h.requireAdmin(h.updateUserHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/users/:username", h.requireAdmin(h.deleteUserHandler))

	router.HandlerFunc(http.MethodPost, "/v1/tokens/authentication", h.createAuthenticationTokenHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/tokens/authentication", h.requireAuthenticatedUser(h.deleteAuthenticationTokenHandler))

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", h.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/debug/vars", h.basicAuth(expvar.Handler().ServeHTTP))

	// Swagger routes
	router.HandlerFunc(http.MethodGet, "/spec", h.handleSwaggerFile())
	router.HandlerFunc(http.MethodGet, "/docs/*any", httpSwagger.Handler(httpSwagger.URL("/spec")))

	return h.metrics(h.recoverPanic(h.enableCORS(h.rateLimit(h.authenticate(router)))))
}
