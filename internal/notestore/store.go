// Package notestore implements the central note collection: an in-memory,
// mutex-guarded store of task and text notes with monotonic id allocation,
// versioned schema migrations, date auto-advance, and change notification
// for write-through persistence.
//
// Mutating operations never fail: unknown ids and out-of-range indices are
// silently ignored. Transient invalid arguments are expected during
// interactive reordering, so best-effort is the contract, not an error.
package notestore

import (
	"sync"

	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/models"
)

// Key is the persistence key for the notes document.
const Key = "doto-notes"

// Store owns the note collection. Construct one per process (or per test)
// with New; all methods are safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	notes      []models.Note
	nextNoteID int64
	nextTodoID int64
	clk        clock.Clock

	listenerMu sync.Mutex
	listeners  []func()
}

// New creates an empty store using clk for timestamps and "today".
func New(clk clock.Clock) *Store {
	return &Store{
		notes:      []models.Note{},
		nextNoteID: 1,
		nextTodoID: 1,
		clk:        clk,
	}
}

// OnChange registers fn to be called after every collection mutation.
// Listeners run outside the store lock and may call read accessors.
func (s *Store) OnChange(fn func()) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenerMu.Unlock()
}

func (s *Store) notify() {
	s.listenerMu.Lock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.listenerMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// mutate runs fn under the lock and notifies listeners when fn reports a
// change.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// findLocked returns the note with the given id. Callers hold s.mu.
func (s *Store) findLocked(id int64) (models.Note, bool) {
	for _, n := range s.notes {
		if n.Meta().ID == id {
			return n, true
		}
	}
	return nil, false
}

// taskLocked returns the task note with the given id. Callers hold s.mu.
func (s *Store) taskLocked(id int64) (*models.TaskNote, bool) {
	n, ok := s.findLocked(id)
	if !ok {
		return nil, false
	}
	task, ok := n.(*models.TaskNote)
	return task, ok
}

func (s *Store) indexOfLocked(id int64) int {
	for i, n := range s.notes {
		if n.Meta().ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) allocNoteIDLocked() int64 {
	id := s.nextNoteID
	s.nextNoteID++
	return id
}

func (s *Store) allocTodoIDLocked() int64 {
	id := s.nextTodoID
	s.nextTodoID++
	return id
}

func (s *Store) newMetaLocked(name, date string) models.NoteMeta {
	now := s.clk.Now()
	// New notes are always dated: empty or malformed dates mean today.
	if !clock.ValidDate(date) {
		date = s.clk.Today()
	}
	return models.NoteMeta{
		ID:          s.allocNoteIDLocked(),
		Name:        name,
		CreatedAt:   &now,
		Date:        date,
		Tags:        []string{},
		AutoAdvance: true,
	}
}

// AddTaskNote appends a new task note anchored to date (today when empty
// or malformed) and returns its id. Ids are never reused, even after
// deletion.
func (s *Store) AddTaskNote(name, date string) int64 {
	var id int64
	s.mutate(func() bool {
		n := &models.TaskNote{NoteMeta: s.newMetaLocked(name, date), Todos: []models.Todo{}}
		s.notes = append(s.notes, n)
		id = n.ID
		return true
	})
	return id
}

// AddTextNote appends a new text note anchored to date (today when empty
// or malformed) and returns its id.
func (s *Store) AddTextNote(name, date string) int64 {
	var id int64
	s.mutate(func() bool {
		n := &models.TextNote{NoteMeta: s.newMetaLocked(name, date)}
		s.notes = append(s.notes, n)
		id = n.ID
		return true
	})
	return id
}

// RenameNote sets the note's name.
func (s *Store) RenameNote(id int64, name string) {
	s.mutate(func() bool {
		n, ok := s.findLocked(id)
		if !ok {
			return false
		}
		n.Meta().Name = name
		return true
	})
}

// UpdateNoteDate reanchors the note to date. An empty date makes the note
// undated; a malformed date is ignored.
func (s *Store) UpdateNoteDate(id int64, date string) {
	if date != "" && !clock.ValidDate(date) {
		return
	}
	s.mutate(func() bool {
		n, ok := s.findLocked(id)
		if !ok {
			return false
		}
		n.Meta().Date = date
		return true
	})
}

// UpdateNoteTag assigns the tag to the note, replacing any previous tag.
// An empty tagID clears the assignment.
func (s *Store) UpdateNoteTag(id int64, tagID string) {
	s.mutate(func() bool {
		n, ok := s.findLocked(id)
		if !ok {
			return false
		}
		if tagID == "" {
			n.Meta().Tags = []string{}
		} else {
			n.Meta().Tags = []string{tagID}
		}
		return true
	})
}

// ToggleAutoAdvance flips the note's auto-advance flag.
func (s *Store) ToggleAutoAdvance(id int64) {
	s.mutate(func() bool {
		n, ok := s.findLocked(id)
		if !ok {
			return false
		}
		n.Meta().AutoAdvance = !n.Meta().AutoAdvance
		return true
	})
}

// UpdateTextContent sets a text note's content.
func (s *Store) UpdateTextContent(id int64, content string) {
	s.mutate(func() bool {
		n, ok := s.findLocked(id)
		if !ok {
			return false
		}
		text, ok := n.(*models.TextNote)
		if !ok {
			return false
		}
		text.Content = content
		return true
	})
}

// RemoveNote deletes the note and all its todos. Remaining notes keep
// their ids and order.
func (s *Store) RemoveNote(id int64) {
	s.mutate(func() bool {
		i := s.indexOfLocked(id)
		if i < 0 {
			return false
		}
		s.notes = append(s.notes[:i], s.notes[i+1:]...)
		return true
	})
}

// MoveNote relocates the note at from to position to within the ordered
// collection. Out-of-range indices are ignored.
func (s *Store) MoveNote(from, to int) {
	s.mutate(func() bool {
		return s.moveNoteLocked(from, to)
	})
}

// MoveNoteByID relocates the note with fromID to the position currently
// occupied by the note with toID. Unknown ids are ignored.
func (s *Store) MoveNoteByID(fromID, toID int64) {
	s.mutate(func() bool {
		from := s.indexOfLocked(fromID)
		to := s.indexOfLocked(toID)
		if from < 0 || to < 0 {
			return false
		}
		return s.moveNoteLocked(from, to)
	})
}

func (s *Store) moveNoteLocked(from, to int) bool {
	if from < 0 || from >= len(s.notes) || to < 0 || to >= len(s.notes) || from == to {
		return false
	}
	n := s.notes[from]
	s.notes = append(s.notes[:from], s.notes[from+1:]...)
	rest := append([]models.Note{}, s.notes[to:]...)
	s.notes = append(append(s.notes[:to:to], n), rest...)
	return true
}

// DuplicateTaskNote archives the source note in place and creates a new
// task note on targetDate (today when empty or malformed) carrying the
// source's non-completed todos with fresh ids. It returns the new note's
// id, or 0 if the source does not resolve to a task note.
func (s *Store) DuplicateTaskNote(id int64, targetDate string) int64 {
	var newID int64
	s.mutate(func() bool {
		src, ok := s.taskLocked(id)
		if !ok {
			return false
		}
		src.Archived = true
		src.AutoAdvance = false

		now := s.clk.Now()
		if !clock.ValidDate(targetDate) {
			targetDate = s.clk.Today()
		}
		dup := &models.TaskNote{
			NoteMeta: models.NoteMeta{
				ID:          s.allocNoteIDLocked(),
				Name:        src.Name,
				CreatedAt:   &now,
				Date:        targetDate,
				Tags:        append([]string{}, src.Tags...),
				AutoAdvance: true,
			},
			Todos: []models.Todo{},
		}
		for _, td := range src.Todos {
			if !td.Open() {
				continue
			}
			created := now
			dup.Todos = append(dup.Todos, models.Todo{
				ID:        s.allocTodoIDLocked(),
				Title:     td.Title,
				Status:    td.Status,
				CreatedAt: &created,
			})
		}
		s.notes = append(s.notes, dup)
		newID = dup.ID
		return true
	})
	return newID
}

// RemoveTagFromAllNotes clears every reference to tagID. The tag registry
// calls this from its delete path.
func (s *Store) RemoveTagFromAllNotes(tagID string) {
	s.mutate(func() bool {
		changed := false
		for _, n := range s.notes {
			meta := n.Meta()
			kept := meta.Tags[:0]
			for _, t := range meta.Tags {
				if t == tagID {
					changed = true
					continue
				}
				kept = append(kept, t)
			}
			meta.Tags = kept
		}
		return changed
	})
}

// ReplaceAllNotes swaps in a new collection wholesale (backup import).
// The incoming ids are trusted verbatim; the id counters restart one past
// the highest ids seen so future allocations continue above them.
func (s *Store) ReplaceAllNotes(notes []models.Note) {
	s.mutate(func() bool {
		s.notes = make([]models.Note, len(notes))
		for i, n := range notes {
			s.notes[i] = n.Clone()
		}
		s.reseedCountersLocked()
		return true
	})
}

func (s *Store) reseedCountersLocked() {
	s.nextNoteID, s.nextTodoID = 1, 1
	for _, n := range s.notes {
		if id := n.Meta().ID; id >= s.nextNoteID {
			s.nextNoteID = id + 1
		}
		if task, ok := n.(*models.TaskNote); ok {
			for _, td := range task.Todos {
				if td.ID >= s.nextTodoID {
					s.nextTodoID = td.ID + 1
				}
			}
		}
	}
}

// Notes returns a deep copy of the collection in display order.
func (s *Store) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.Clone()
	}
	return out
}

// Note returns a deep copy of the note with the given id.
func (s *Store) Note(id int64) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.findLocked(id)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}
