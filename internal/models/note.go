// Package models defines the domain types for Doto: notes, todos, and tags.
//
// Note is a closed sum type discriminated by the wire field "type". A task
// note carries an ordered todo list; a text note carries free text. The two
// shapes never mix: the compiler, not an optional field, enforces that a
// text note has no todos.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the two note shapes on the wire.
type Kind string

const (
	KindTask Kind = "task"
	KindText Kind = "text"
)

// IsValid reports whether k is a known note kind.
func (k Kind) IsValid() bool {
	return k == KindTask || k == KindText
}

// NoteMeta holds the fields common to both note kinds.
//
// Date is the note's anchor calendar date in canonical YYYY-MM-DD form,
// empty for undated notes. Tags is a sequence for forward compatibility,
// but only the first element takes effect.
type NoteMeta struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Date        string     `json:"currentDate,omitempty"`
	Tags        []string   `json:"tags"`
	AutoAdvance bool       `json:"autoAdvance"`
	Archived    bool       `json:"archived"`
}

// PrimaryTag returns the effective tag id, if any.
func (m *NoteMeta) PrimaryTag() (string, bool) {
	if len(m.Tags) == 0 {
		return "", false
	}
	return m.Tags[0], true
}

// Note is the sealed interface over TaskNote and TextNote.
type Note interface {
	// Meta returns the mutable common fields.
	Meta() *NoteMeta
	// Kind returns the wire discriminant.
	Kind() Kind
	// Open reports whether the note still represents unfinished work:
	// a task note with at least one non-completed todo, or a text note
	// with non-blank content.
	Open() bool
	// Clone returns a deep copy.
	Clone() Note

	sealedNote()
}

// TaskNote is a note holding an ordered todo list. Todo order is the
// display order and changes only through explicit move operations.
type TaskNote struct {
	NoteMeta
	Todos []Todo `json:"todos"`
}

// TextNote is a note holding free text.
type TextNote struct {
	NoteMeta
	Content string `json:"content"`
}

func (n *TaskNote) Meta() *NoteMeta { return &n.NoteMeta }
func (n *TextNote) Meta() *NoteMeta { return &n.NoteMeta }

func (n *TaskNote) Kind() Kind { return KindTask }
func (n *TextNote) Kind() Kind { return KindText }

func (n *TaskNote) Open() bool {
	for _, td := range n.Todos {
		if td.Open() {
			return true
		}
	}
	return false
}

func (n *TextNote) Open() bool {
	return !blank(n.Content)
}

func (n *TaskNote) Clone() Note {
	c := *n
	c.Tags = cloneStrings(n.Tags)
	c.CreatedAt = cloneTime(n.CreatedAt)
	c.Todos = make([]Todo, len(n.Todos))
	for i, td := range n.Todos {
		c.Todos[i] = td.Clone()
	}
	return &c
}

func (n *TextNote) Clone() Note {
	c := *n
	c.Tags = cloneStrings(n.Tags)
	c.CreatedAt = cloneTime(n.CreatedAt)
	return &c
}

func (n *TaskNote) sealedNote() {}
func (n *TextNote) sealedNote() {}

// MarshalJSON injects the "type" discriminant.
func (n *TaskNote) MarshalJSON() ([]byte, error) {
	type alias TaskNote
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindTask, (*alias)(n)})
}

// MarshalJSON injects the "type" discriminant.
func (n *TextNote) MarshalJSON() ([]byte, error) {
	type alias TextNote
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindText, (*alias)(n)})
}

// UnmarshalNote decodes one note, dispatching on the "type" field.
// Unknown or missing kinds are rejected.
func UnmarshalNote(data []byte) (Note, error) {
	var probe struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("models: decode note: %w", err)
	}
	switch probe.Type {
	case KindTask:
		var n TaskNote
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("models: decode task note: %w", err)
		}
		return &n, nil
	case KindText:
		var n TextNote
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("models: decode text note: %w", err)
		}
		return &n, nil
	default:
		return nil, fmt.Errorf("models: unknown note type %q", probe.Type)
	}
}

// UnmarshalNotes decodes a JSON array of tagged notes.
func UnmarshalNotes(data []byte) ([]Note, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("models: decode notes: %w", err)
	}
	notes := make([]Note, 0, len(raw))
	for i, r := range raw {
		n, err := UnmarshalNote(r)
		if err != nil {
			return nil, fmt.Errorf("models: note %d: %w", i, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
