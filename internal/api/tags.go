package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dotolabs/doto/internal/models"
)

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": h.tags.All()})
}

// CreateTag handles POST /api/tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tag, err := h.tags.Add(req.Name, models.Color(req.Color))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// GetTag handles GET /api/tags/{id}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	tag, ok := h.tags.Find(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// DeleteTag handles DELETE /api/tags/{id}. Removal cascades: the tag is
// cleared from every note that references it.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	h.tags.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
