package notestore

import (
	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/models"
)

// Todo operations are scoped to a single task note and silently ignore a
// target that is missing or is a text note.

// AddTodo appends a new todo to the task note and returns its id, or 0
// when the note does not resolve to a task note. Todo ids come from one
// counter shared by every note, so they are unique across the collection.
func (s *Store) AddTodo(noteID int64, title string) int64 {
	var id int64
	s.mutate(func() bool {
		task, ok := s.taskLocked(noteID)
		if !ok {
			return false
		}
		now := s.clk.Now()
		td := models.Todo{
			ID:        s.allocTodoIDLocked(),
			Title:     title,
			Status:    models.StatusIncomplete,
			CreatedAt: &now,
		}
		task.Todos = append(task.Todos, td)
		id = td.ID
		return true
	})
	return id
}

// RemoveTodo deletes the todo from the task note.
func (s *Store) RemoveTodo(noteID, todoID int64) {
	s.mutate(func() bool {
		task, ok := s.taskLocked(noteID)
		if !ok {
			return false
		}
		for i, td := range task.Todos {
			if td.ID == todoID {
				task.Todos = append(task.Todos[:i], task.Todos[i+1:]...)
				return true
			}
		}
		return false
	})
}

// RenameTodo sets the todo's title.
func (s *Store) RenameTodo(noteID, todoID int64, title string) {
	s.mutate(func() bool {
		td, ok := s.todoLocked(noteID, todoID)
		if !ok {
			return false
		}
		td.Title = title
		return true
	})
}

// ToggleTodo advances the todo's status along the fixed cycle
// incomplete -> in-progress -> completed -> incomplete, stamping or
// clearing CompletedAt so it is set exactly when the status is completed.
func (s *Store) ToggleTodo(noteID, todoID int64) {
	s.mutate(func() bool {
		td, ok := s.todoLocked(noteID, todoID)
		if !ok {
			return false
		}
		td.Status = td.Status.Next()
		if td.Status == models.StatusCompleted {
			now := s.clk.Now()
			td.CompletedAt = &now
		} else {
			td.CompletedAt = nil
		}
		return true
	})
}

// MoveTodo relocates the todo at from to position to within the note's
// ordered list. Out-of-range indices are ignored.
func (s *Store) MoveTodo(noteID int64, from, to int) {
	s.mutate(func() bool {
		task, ok := s.taskLocked(noteID)
		if !ok {
			return false
		}
		if from < 0 || from >= len(task.Todos) || to < 0 || to >= len(task.Todos) || from == to {
			return false
		}
		td := task.Todos[from]
		task.Todos = append(task.Todos[:from], task.Todos[from+1:]...)
		rest := append([]models.Todo{}, task.Todos[to:]...)
		task.Todos = append(append(task.Todos[:to:to], td), rest...)
		return true
	})
}

// MoveTodoBetweenNotes removes the todo at fromIndex in the source task
// note and inserts it at min(toIndex, len(target.Todos)) in the
// destination task note.
func (s *Store) MoveTodoBetweenNotes(fromNoteID, toNoteID int64, fromIndex, toIndex int) {
	s.mutate(func() bool {
		src, ok := s.taskLocked(fromNoteID)
		if !ok {
			return false
		}
		dst, ok := s.taskLocked(toNoteID)
		if !ok {
			return false
		}
		if fromIndex < 0 || fromIndex >= len(src.Todos) || toIndex < 0 {
			return false
		}
		td := src.Todos[fromIndex]
		src.Todos = append(src.Todos[:fromIndex], src.Todos[fromIndex+1:]...)
		if toIndex > len(dst.Todos) {
			toIndex = len(dst.Todos)
		}
		rest := append([]models.Todo{}, dst.Todos[toIndex:]...)
		dst.Todos = append(append(dst.Todos[:toIndex:toIndex], td), rest...)
		return true
	})
}

// MoveTodoToDate moves the todo at todoIndex in the source task note to
// the first non-archived task note anchored to targetDate, creating one
// named after the date when none exists. The todo is appended to the end
// of the target's list.
func (s *Store) MoveTodoToDate(fromNoteID int64, todoIndex int, targetDate string) {
	if !clock.ValidDate(targetDate) {
		return
	}
	s.mutate(func() bool {
		src, ok := s.taskLocked(fromNoteID)
		if !ok {
			return false
		}
		if todoIndex < 0 || todoIndex >= len(src.Todos) {
			return false
		}

		// First non-archived match wins when several notes share the date.
		var dst *models.TaskNote
		for _, n := range s.notes {
			task, ok := n.(*models.TaskNote)
			if !ok || task.Archived || task.Date != targetDate {
				continue
			}
			dst = task
			break
		}
		if dst == nil {
			dst = &models.TaskNote{
				NoteMeta: s.newMetaLocked(targetDate, targetDate),
				Todos:    []models.Todo{},
			}
			s.notes = append(s.notes, dst)
		}

		td := src.Todos[todoIndex]
		src.Todos = append(src.Todos[:todoIndex], src.Todos[todoIndex+1:]...)
		dst.Todos = append(dst.Todos, td)
		return true
	})
}

// todoLocked returns a pointer into the task note's todo list.
// Callers hold s.mu.
func (s *Store) todoLocked(noteID, todoID int64) (*models.Todo, bool) {
	task, ok := s.taskLocked(noteID)
	if !ok {
		return nil, false
	}
	for i := range task.Todos {
		if task.Todos[i].ID == todoID {
			return &task.Todos[i], true
		}
	}
	return nil, false
}
