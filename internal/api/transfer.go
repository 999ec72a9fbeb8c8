package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dotolabs/doto/internal/backup"
	"github.com/dotolabs/doto/internal/export"
)

// Backup and export endpoints. Both are read-only projections of the
// collection; import is the only way back in and goes through full codec
// validation before the store is touched.

// GetBackup handles GET /api/backup.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	data, err := backup.Encode(h.store.Notes(), h.clk.Now())
	if err != nil {
		slog.Error("backup encode failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "doto-backup-"+h.clk.Today()+".json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import. Validation is all-or-nothing: a
// malformed or invalid backup leaves the current collection untouched.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	notes, err := backup.Decode(raw, h.clk.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.ReplaceAllNotes(notes)
	writeJSON(w, http.StatusOK, ImportResponse{Imported: len(notes)})
}

// ExportMarkdown handles GET /api/export/markdown.
func (h *Handler) ExportMarkdown(w http.ResponseWriter, r *http.Request) {
	doc := export.All(h.store.Notes(), h.clk.Today())
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// ExportNoteMarkdown handles GET /api/export/notes/{id}/markdown.
func (h *Handler) ExportNoteMarkdown(w http.ResponseWriter, r *http.Request) {
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
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.FileName(note.Meta().Name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.Note(note)))
}

// ExportZip handles GET /api/export/zip.
func (h *Handler) ExportZip(w http.ResponseWriter, r *http.Request) {
	data, name, err := export.Zip(h.store.Notes())
	if err != nil {
		slog.Error("zip export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
