// Package backup implements the versioned JSON snapshot of the note
// collection: strict validation and parsing of untrusted import files,
// and serialization of the in-memory collection back to the same shape.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/models"
)

// Version is the only backup file version this build reads or writes.
// Any other value is rejected outright; forward migration is a non-goal.
const Version = 1

// File is the on-disk backup shape.
type File struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Notes      []models.Note `json:"notes"`
}

// Encode serializes notes as a version-1 backup stamped with now.
// Todo status is always written as the three-state enum, never as the
// legacy completed boolean.
func Encode(notes []models.Note, now time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(File{Version: Version, ExportedAt: now, Notes: notes}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("backup: encode: %w", err)
	}
	return data, nil
}

// Decode validates and parses an untrusted backup file. Validation is
// fail-fast: the first violation aborts with an error naming the failing
// note (and todo) index and field. Malformed JSON and schema violations
// are distinct errors; neither ever escapes as a panic.
//
// Both the status enum and the legacy completed boolean are accepted on
// todos; a legacy boolean true is stamped with now as the completion
// time so the CompletedAt invariant holds on the way in.
func Decode(raw []byte, now time.Time) ([]models.Note, error) {
	var top struct {
		Version *json.RawMessage `json:"version"`
		Notes   *json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("backup: invalid JSON: %w", err)
	}

	if top.Version == nil {
		return nil, fmt.Errorf("backup: field %q is required", "version")
	}
	var version int
	if err := json.Unmarshal(*top.Version, &version); err != nil {
		return nil, fmt.Errorf("backup: field %q: expected integer", "version")
	}
	if version != Version {
		return nil, fmt.Errorf("backup: unsupported backup version %d", version)
	}

	if top.Notes == nil {
		return nil, fmt.Errorf("backup: field %q is required", "notes")
	}
	var rawNotes []json.RawMessage
	if err := json.Unmarshal(*top.Notes, &rawNotes); err != nil {
		return nil, fmt.Errorf("backup: field %q: expected array", "notes")
	}

	notes := make([]models.Note, 0, len(rawNotes))
	for i, rn := range rawNotes {
		n, err := decodeNote(rn, now)
		if err != nil {
			return nil, fmt.Errorf("backup: note %d: %w", i, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func decodeNote(raw json.RawMessage, now time.Time) (models.Note, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("expected object")
	}

	id, err := intField(obj, "id", true)
	if err != nil {
		return nil, err
	}
	name, err := stringField(obj, "name", true)
	if err != nil {
		return nil, err
	}
	kindStr, err := stringField(obj, "type", true)
	if err != nil {
		return nil, err
	}
	kind := models.Kind(kindStr)
	if !kind.IsValid() {
		return nil, fmt.Errorf("field %q: unknown note type %q", "type", kindStr)
	}

	meta := models.NoteMeta{ID: id, Name: name, Tags: []string{}}

	if meta.Date, err = stringField(obj, "currentDate", false); err != nil {
		return nil, err
	}
	if meta.Date != "" && !clock.ValidDate(meta.Date) {
		return nil, fmt.Errorf("field %q: invalid calendar date %q", "currentDate", meta.Date)
	}
	if meta.CreatedAt, err = timeField(obj, "createdAt"); err != nil {
		return nil, err
	}
	if tags, ok := obj["tags"]; ok {
		if err := json.Unmarshal(tags, &meta.Tags); err != nil {
			return nil, fmt.Errorf("field %q: expected array of strings", "tags")
		}
		if meta.Tags == nil {
			meta.Tags = []string{}
		}
	}
	if meta.AutoAdvance, err = boolField(obj, "autoAdvance"); err != nil {
		return nil, err
	}
	if meta.Archived, err = boolField(obj, "archived"); err != nil {
		return nil, err
	}

	switch kind {
	case models.KindTask:
		task := &models.TaskNote{NoteMeta: meta, Todos: []models.Todo{}}
		if rawTodos, ok := obj["todos"]; ok {
			var items []json.RawMessage
			if err := json.Unmarshal(rawTodos, &items); err != nil {
				return nil, fmt.Errorf("field %q: expected array", "todos")
			}
			for j, item := range items {
				td, err := decodeTodo(item, now)
				if err != nil {
					return nil, fmt.Errorf("todo %d: %w", j, err)
				}
				task.Todos = append(task.Todos, td)
			}
		}
		return task, nil
	default:
		content, err := stringField(obj, "content", true)
		if err != nil {
			return nil, err
		}
		return &models.TextNote{NoteMeta: meta, Content: content}, nil
	}
}

func decodeTodo(raw json.RawMessage, now time.Time) (models.Todo, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.Todo{}, fmt.Errorf("expected object")
	}

	id, err := intField(obj, "id", true)
	if err != nil {
		return models.Todo{}, err
	}
	title, err := stringField(obj, "title", true)
	if err != nil {
		return models.Todo{}, err
	}

	td := models.Todo{ID: id, Title: title}

	statusRaw, hasStatus := obj["status"]
	completedRaw, hasCompleted := obj["completed"]
	switch {
	case hasStatus:
		var st models.Status
		if err := json.Unmarshal(statusRaw, &st); err != nil || !st.IsValid() {
			return models.Todo{}, fmt.Errorf("field %q: expected one of %q, %q, %q",
				"status", models.StatusIncomplete, models.StatusInProgress, models.StatusCompleted)
		}
		td.Status = st
	case hasCompleted:
		var completed bool
		if err := json.Unmarshal(completedRaw, &completed); err != nil {
			return models.Todo{}, fmt.Errorf("field %q: expected boolean", "completed")
		}
		td.Status = models.StatusIncomplete
		if completed {
			td.Status = models.StatusCompleted
		}
	default:
		return models.Todo{}, fmt.Errorf("field %q is required", "status")
	}

	if td.CreatedAt, err = timeField(obj, "createdAt"); err != nil {
		return models.Todo{}, err
	}
	if td.CompletedAt, err = timeField(obj, "completedAt"); err != nil {
		return models.Todo{}, err
	}
	if td.Status != models.StatusCompleted {
		td.CompletedAt = nil
	} else if td.CompletedAt == nil {
		stamped := now
		td.CompletedAt = &stamped
	}
	return td, nil
}

func intField(obj map[string]json.RawMessage, key string, required bool) (int64, error) {
	raw, ok := obj[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("field %q is required", key)
		}
		return 0, nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("field %q: expected integer", key)
	}
	return v, nil
}

func stringField(obj map[string]json.RawMessage, key string, required bool) (string, error) {
	raw, ok := obj[key]
	if !ok {
		if required {
			return "", fmt.Errorf("field %q is required", key)
		}
		return "", nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("field %q: expected string", key)
	}
	return v, nil
}

func boolField(obj map[string]json.RawMessage, key string) (bool, error) {
	raw, ok := obj[key]
	if !ok {
		return false, nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("field %q: expected boolean", key)
	}
	return v, nil
}

func timeField(obj map[string]json.RawMessage, key string) (*time.Time, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	var v time.Time
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("field %q: expected RFC 3339 timestamp", key)
	}
	return &v, nil
}
