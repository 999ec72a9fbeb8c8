package api

// CreateNoteRequest is the body of POST /notes.
type CreateNoteRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Date string `json:"date,omitempty"`
}

// UpdateNoteRequest is the body of PATCH /notes/{id}. Absent fields are
// left untouched; an empty TagID or Date clears the field.
type UpdateNoteRequest struct {
	Name    *string `json:"name,omitempty"`
	Date    *string `json:"currentDate,omitempty"`
	TagID   *string `json:"tagId,omitempty"`
	Content *string `json:"content,omitempty"`
}

// MoveNoteRequest is the body of POST /notes/move.
type MoveNoteRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

// MoveNoteByIDRequest is the body of POST /notes/move-by-id.
type MoveNoteByIDRequest struct {
	FromID int64 `json:"fromId"`
	ToID   int64 `json:"toId"`
}

// DuplicateNoteRequest is the body of POST /notes/{id}/duplicate.
type DuplicateNoteRequest struct {
	TargetDate string `json:"targetDate"`
}

// CreateTodoRequest is the body of POST /notes/{id}/todos.
type CreateTodoRequest struct {
	Title string `json:"title"`
}

// RenameTodoRequest is the body of PATCH /notes/{id}/todos/{todoId}.
type RenameTodoRequest struct {
	Title string `json:"title"`
}

// MoveTodoRequest is the body of POST /notes/{id}/todos/move.
type MoveTodoRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

// MoveTodoBetweenNotesRequest is the body of POST /todos/move.
type MoveTodoBetweenNotesRequest struct {
	FromNoteID int64 `json:"fromNoteId"`
	ToNoteID   int64 `json:"toNoteId"`
	FromIndex  int   `json:"fromIndex"`
	ToIndex    int   `json:"toIndex"`
}

// MoveTodoToDateRequest is the body of POST /todos/move-to-date.
type MoveTodoToDateRequest struct {
	FromNoteID int64  `json:"fromNoteId"`
	TodoIndex  int    `json:"todoIndex"`
	TargetDate string `json:"targetDate"`
}

// CreateTagRequest is the body of POST /tags.
type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ImportResponse is the success body of POST /import.
type ImportResponse struct {
	Imported int `json:"imported"`
}
