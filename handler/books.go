package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/emzola/bookshelf/data"
	"github.com/emzola/bookshelf/data/dto"
	"github.com/emzola/bookshelf/internal/validator"
)

// FindBooks godoc
// @Summary List the books of the library
// @Tags books
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Records to skip"
// @Param sort_column query string false "Sort column"
// @Param asc query bool false "Ascending order"
// @Param search query string false "Search title, subtitle and author"
// @Param read query bool false "Read state"
// @Param tag query string false "Tag name"
// @Success 200
// @Failure 401
// @Failure 422
// @Router /v1/books [get]
func (h *Handler) findBooksHandler(w http.ResponseWriter, r *http.Request) {
	var qsInput dto.QsFindBooks
	v := validator.New()
	qs := r.URL.Query()
	qsInput.Criteria.Search = h.readString(qs, "search", "")
	qsInput.Criteria.Read = h.readBool(qs, "read", v)
	qsInput.Criteria.Tag = h.readString(qs, "tag", "")
	qsInput.Filters.PageLimit = h.readInt(qs, "limit", data.DefaultPageLimit, v)
	qsInput.Filters.PageOffset = h.readInt(qs, "offset", 0, v)
	qsInput.Filters.SortSafeList = data.UserBookSortSafeList
	qsInput.Filters.Sort = h.readSort(qs, "sort_column", qsInput.Filters.SortSafeList, v)
	if asc := h.readBool(qs, "asc", v); asc != nil {
		qsInput.Filters.Asc = *asc
	}
	if !v.Valid() {
		h.failedValidationResponse(w, r, v.Errors)
		return
	}
	user := h.contextGetUser(r)
	books, metadata, err := h.service.FindBooks(r.Context(), user.ID, qsInput.Criteria, qsInput.Filters)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"books": books, "metadata": metadata}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// AddBook godoc
// @Summary Add a book to the library by ISBN
// @Tags books
// @Accept json
// @Produce json
// @Param body body dto.AddBookRequestBody true "ISBN of the book"
// @Success 201
// @Failure 409
// @Failure 422
// @Failure 502
// @Router /v1/books [put]
func (h *Handler) addBookHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.AddBookRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	id, err := h.service.AddBookByIsbn(r.Context(), requestBody.Isbn, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	h.createdResponse(w, r, id)
}

// bookActionHandler dispatches PUT /v1/books/manual and PUT /v1/books/import.
func (h *Handler) bookActionHandler(w http.ResponseWriter, r *http.Request) {
	switch h.readParam(r, "id") {
	case "manual":
		h.addBookManualHandler(w, r)
	case "import":
		h.importBooksHandler(w, r)
	default:
		h.methodNotAllowed(w, r)
	}
}

// AddBookManual godoc
// @Summary Add a book to the library from manually entered fields
// @Tags books
// @Accept json
// @Produce json
// @Param body body dto.AddBookManualRequestBody true "Fields of the book"
// @Success 201
// @Failure 400
// @Failure 409
// @Failure 422
// @Router /v1/books/manual [put]
func (h *Handler) addBookManualHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.AddBookManualRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	id, err := h.service.AddBookManual(r.Context(), requestBody, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	h.createdResponse(w, r, id)
}

func (h *Handler) createdResponse(w http.ResponseWriter, r *http.Request, id string) {
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/books/%s", id))
	err := h.encodeJSON(w, http.StatusCreated, envelope{"id": id}, headers)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ImportBooks godoc
// @Summary Import a Goodreads CSV export into the library
// @Description The file is processed in the background
// @Tags books
// @Accept mpfd
// @Produce json
// @Param file formData file true "Goodreads CSV export"
// @Success 202
// @Failure 400
// @Failure 415
// @Router /v1/books/import [put]
func (h *Handler) importBooksHandler(w http.ResponseWriter, r *http.Request) {
	// Set 10MB limit for request body size
	r.Body = http.MaxBytesReader(w, r.Body, 10_485_760+4096)
	file, _, err := r.FormFile("file")
	if err != nil {
		h.badRequestResponse(w, r, errors.New("body must be a multipart form with a file field"))
		return
	}
	defer file.Close()
	user := h.contextGetUser(r)
	err = h.service.ImportBooks(r.Context(), user.ID, user.Username, file)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusAccepted, envelope{"message": "import started"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// ShowBook godoc
// @Summary Show a book of the library
// @Tags books
// @Produce json
// @Param id path string true "ID of the library entry"
// @Success 200
// @Failure 404
// @Router /v1/books/{id} [get]
func (h *Handler) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	book, err := h.service.GetUserBook(r.Context(), id, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateBook godoc
// @Summary Update the fields of a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "ID of the library entry"
// @Param body body dto.UpdateBookRequestBody true "Fields to change"
// @Success 200
// @Failure 400
// @Failure 404
// @Failure 409
// @Failure 422
// @Router /v1/books/{id} [post]
func (h *Handler) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.UpdateBookRequestBody
	err = h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	err = h.service.UpdateBook(r.Context(), id, user.ID, requestBody)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	book, err := h.service.GetUserBook(r.Context(), id, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteBook godoc
// @Summary Remove a book from the library
// @Tags books
// @Produce json
// @Param id path string true "ID of the library entry"
// @Success 200
// @Failure 404
// @Router /v1/books/{id} [delete]
func (h *Handler) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	err = h.service.DeleteUserBook(r.Context(), id, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// SetReadState godoc
// @Summary Mark a book as read or unread
// @Tags books
// @Accept json
// @Param id path string true "ID of the library entry"
// @Param body body dto.SetReadRequestBody true "Read state"
// @Success 204
// @Failure 404
// @Router /v1/books/{id}/read [post]
func (h *Handler) setReadStateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.SetReadRequestBody
	err = h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	err = h.service.SetReadState(r.Context(), id, user.ID, requestBody.Read)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTags godoc
// @Summary Replace the tags of a book
// @Tags books
// @Accept json
// @Param id path string true "ID of the library entry"
// @Param body body dto.SetTagsRequestBody true "Tag IDs"
// @Success 204
// @Failure 400
// @Failure 404
// @Router /v1/books/{id}/tags [put]
func (h *Handler) setTagsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.SetTagsRequestBody
	err = h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	err = h.service.SetTags(r.Context(), id, user.ID, requestBody.Tags)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ShowCover godoc
// @Summary Download the cover of a book
// @Tags books
// @Produce image/jpeg,image/png,image/gif,image/webp
// @Param id path string true "ID of the library entry"
// @Success 200
// @Failure 404
// @Router /v1/books/{id}/cover [get]
func (h *Handler) showCoverHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	cover, contentType, err := h.service.GetCover(r.Context(), id, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	defer cover.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, cover); err != nil {
		h.logError(r, err)
	}
}

// UpdateCover godoc
// @Summary Replace the cover of a book with an image downloaded from a URL
// @Tags books
// @Accept json
// @Param id path string true "ID of the library entry"
// @Param body body dto.UpdateCoverRequestBody true "Image URL"
// @Success 204
// @Failure 404
// @Failure 415
// @Failure 422
// @Failure 502
// @Router /v1/books/{id}/cover [post]
func (h *Handler) updateCoverHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.UpdateCoverRequestBody
	err = h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	err = h.service.UpdateCover(r.Context(), id, user.ID, requestBody.URL)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ShowRating godoc
// @Summary Show the rating summary of a book
// @Tags ratings
// @Produce json
// @Param id path string true "ID of the library entry"
// @Success 200
// @Failure 404
// @Router /v1/books/{id}/rating [get]
func (h *Handler) showRatingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	rating, err := h.service.GetBookRating(r.Context(), id, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"rating": rating}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// RateBook godoc
// @Summary Rate a book
// @Tags ratings
// @Accept json
// @Produce json
// @Param id path string true "ID of the library entry"
// @Param body body dto.RateBookRequestBody true "Rating from 1 to 5"
// @Success 200
// @Failure 404
// @Failure 422
// @Router /v1/books/{id}/rating [post]
func (h *Handler) rateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.RateBookRequestBody
	err = h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	rating, err := h.service.RateBook(r.Context(), id, user.ID, requestBody.Value)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"rating": rating}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
