package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/models"
	"github.com/dotolabs/doto/internal/notestore"
	"github.com/dotolabs/doto/internal/tagstore"
)

// Handler holds API route handlers.
//
// Store mutations follow the store's best-effort contract: an unknown id
// or index is silently ignored, so mutation endpoints answer 204 whether
// or not the target resolved. Only reads distinguish 404.
type Handler struct {
	store *notestore.Store
	tags  *tagstore.Registry
	clk   clock.Clock
}

// NewHandler creates a new Handler.
func NewHandler(store *notestore.Store, tags *tagstore.Registry, clk clock.Clock) *Handler {
	return &Handler{store: store, tags: tags, clk: clk}
}

func noteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func todoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "todoId"), 10, 64)
	return id, err == nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes := h.store.Notes()
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": notes,
		"total": len(notes),
	})
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, ok := h.store.Note(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	var id int64
	switch models.Kind(req.Type) {
	case models.KindTask:
		id = h.store.AddTaskNote(req.Name, req.Date)
	case models.KindText:
		id = h.store.AddTextNote(req.Name, req.Date)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("type must be \"task\" or \"text\""))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// UpdateNote handles PATCH /api/notes/{id}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name != nil {
		h.store.RenameNote(id, *req.Name)
	}
	if req.Date != nil {
		h.store.UpdateNoteDate(id, *req.Date)
	}
	if req.TagID != nil {
		h.store.UpdateNoteTag(id, *req.TagID)
	}
	if req.Content != nil {
		h.store.UpdateTextContent(id, *req.Content)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleAutoAdvance handles POST /api/notes/{id}/auto-advance.
func (h *Handler) ToggleAutoAdvance(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	h.store.ToggleAutoAdvance(id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	h.store.RemoveNote(id)
	w.WriteHeader(http.StatusNoContent)
}

// MoveNote handles POST /api/notes/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.store.MoveNote(req.FromIndex, req.ToIndex)
	w.WriteHeader(http.StatusNoContent)
}

// MoveNoteByID handles POST /api/notes/move-by-id.
func (h *Handler) MoveNoteByID(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteByIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.store.MoveNoteByID(req.FromID, req.ToID)
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateNote handles POST /api/notes/{id}/duplicate.
func (h *Handler) DuplicateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req DuplicateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	newID := h.store.DuplicateTaskNote(id, req.TargetDate)
	if newID == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not a task note"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": newID})
}

// CreateTodo handles POST /api/notes/{id}/todos.
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req CreateTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	tid := h.store.AddTodo(id, req.Title)
	if tid == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not a task note"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": tid})
}

// RenameTodo handles PATCH /api/notes/{id}/todos/{todoId}.
func (h *Handler) RenameTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	tid, ok := todoID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid todo id"))
		return
	}
	var req RenameTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.store.RenameTodo(id, tid, req.Title)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTodo handles DELETE /api/notes/{id}/todos/{todoId}.
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	tid, ok := todoID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid todo id"))
		return
	}
	h.store.RemoveTodo(id, tid)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTodo handles POST /api/notes/{id}/todos/{todoId}/toggle.
func (h *Handler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	tid, ok := todoID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid todo id"))
		return
	}
	h.store.ToggleTodo(id, tid)
	w.WriteHeader(http.StatusNoContent)
}

// MoveTodo handles POST /api/notes/{id}/todos/move.
func (h *Handler) MoveTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	var req MoveTodoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.store.MoveTodo(id, req.FromIndex, req.ToIndex)
	w.WriteHeader(http.StatusNoContent)
}

// MoveTodoBetweenNotes handles POST /api/todos/move.
func (h *Handler) MoveTodoBetweenNotes(w http.ResponseWriter, r *http.Request) {
	var req MoveTodoBetweenNotesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.store.MoveTodoBetweenNotes(req.FromNoteID, req.ToNoteID, req.FromIndex, req.ToIndex)
	w.WriteHeader(http.StatusNoContent)
}

// MoveTodoToDate handles POST /api/todos/move-to-date.
func (h *Handler) MoveTodoToDate(w http.ResponseWriter, r *http.Request) {
	var req MoveTodoToDateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.store.MoveTodoToDate(req.FromNoteID, req.TodoIndex, req.TargetDate)
	w.WriteHeader(http.StatusNoContent)
}
