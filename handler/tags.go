package handler

import (
	"fmt"
	"net/http"

	"github.com/emzola/bookshelf/data/dto"
)

// ListTags godoc
// @Summary List the tags of the user
// @Tags tags
// @Produce json
// @Success 200
// @Router /v1/tags [get]
func (h *Handler) listTagsHandler(w http.ResponseWriter, r *http.Request) {
	user := h.contextGetUser(r)
	tags, err := h.service.ListTags(r.Context(), user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"tags": tags}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// CreateTag godoc
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param body body dto.CreateTagRequestBody true "Name and color of the tag"
// @Success 201
// @Failure 409
// @Failure 422
// @Router /v1/tags [post]
func (h *Handler) createTagHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody dto.CreateTagRequestBody
	err := h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	tag, err := h.service.CreateTag(r.Context(), requestBody, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/tags/%s", tag.ID))
	err = h.encodeJSON(w, http.StatusCreated, envelope{"tag": tag}, headers)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// UpdateTag godoc
// @Summary Update a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path string true "ID of the tag"
// @Param body body dto.UpdateTagRequestBody true "Fields to change"
// @Success 200
// @Failure 404
// @Failure 409
// @Failure 422
// @Router /v1/tags/{id} [post]
func (h *Handler) updateTagHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	var requestBody dto.UpdateTagRequestBody
	err = h.decodeJSON(w, r, &requestBody)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	user := h.contextGetUser(r)
	tag, err := h.service.UpdateTag(r.Context(), id, user.ID, requestBody)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"tag": tag}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// DeleteTag godoc
// @Summary Delete a tag
// @Tags tags
// @Produce json
// @Param id path string true "ID of the tag"
// @Success 200
// @Failure 404
// @Router /v1/tags/{id} [delete]
func (h *Handler) deleteTagHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.readIDParam(r, "id")
	if err != nil {
		h.notFoundResponse(w, r)
		return
	}
	user := h.contextGetUser(r)
	err = h.service.DeleteTag(r.Context(), id, user.ID)
	if err != nil {
		h.serviceErrorResponse(w, r, err)
		return
	}
	err = h.encodeJSON(w, http.StatusOK, envelope{"message": "tag successfully deleted"}, nil)
	if err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
