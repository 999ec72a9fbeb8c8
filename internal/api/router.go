package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/notestore"
	"github.com/dotolabs/doto/internal/tagstore"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store *notestore.Store, tags *tagstore.Registry, clk clock.Clock,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {

	h := NewHandler(store, tags, clk)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/move", h.MoveNote)
	r.Post("/notes/move-by-id", h.MoveNoteByID)
	r.Get("/notes/{id}", h.GetNote)
	r.Patch("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/auto-advance", h.ToggleAutoAdvance)
	r.Post("/notes/{id}/duplicate", h.DuplicateNote)

	// Todos.
	r.Post("/notes/{id}/todos", h.CreateTodo)
	r.Post("/notes/{id}/todos/move", h.MoveTodo)
	r.Patch("/notes/{id}/todos/{todoId}", h.RenameTodo)
	r.Delete("/notes/{id}/todos/{todoId}", h.DeleteTodo)
	r.Post("/notes/{id}/todos/{todoId}/toggle", h.ToggleTodo)
	r.Post("/todos/move", h.MoveTodoBetweenNotes)
	r.Post("/todos/move-to-date", h.MoveTodoToDate)

	// Tags.
	r.Get("/tags", h.ListTags)
	r.Post("/tags", h.CreateTag)
	r.Get("/tags/{id}", h.GetTag)
	r.Delete("/tags/{id}", h.DeleteTag)

	// Backup and export.
	r.Get("/backup", h.GetBackup)
	r.Post("/import", h.Import)
	r.Get("/export/markdown", h.ExportMarkdown)
	r.Get("/export/notes/{id}/markdown", h.ExportNoteMarkdown)
	r.Get("/export/zip", h.ExportZip)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
