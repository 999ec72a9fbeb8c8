package notestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dotolabs/doto/internal/models"
)

// SchemaVersion is the document version written by this build. The stored
// version doubles as the migration gate: a step keyed at version v never
// runs against a document already at or past v.
const SchemaVersion = 2

// Legacy literal tag values rewritten by the tag migration.
const (
	legacyTagWork     = "work"
	legacyTagPersonal = "personal"
)

// TagMaterializer is the slice of the tag registry the tag migration
// needs: resolve a tag by name, creating it when absent.
type TagMaterializer interface {
	FindOrCreateByName(name string, color models.Color) models.Tag
}

// document is the persisted shape of the collection while migrations run.
// Todos keep both the status enum and the legacy completed boolean so
// version-0 data survives decoding.
type document struct {
	SchemaVersion int        `json:"schemaVersion"`
	Notes         []*rawNote `json:"notes"`
}

type rawNote struct {
	Type        models.Kind `json:"type"`
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
	Date        string      `json:"currentDate,omitempty"`
	Tags        []string    `json:"tags"`
	AutoAdvance bool        `json:"autoAdvance"`
	Archived    bool        `json:"archived"`
	Todos       []rawTodo   `json:"todos,omitempty"`
	Content     *string     `json:"content,omitempty"`
}

type rawTodo struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Status      *models.Status `json:"status,omitempty"`
	Completed   *bool          `json:"completed,omitempty"`
	CreatedAt   *time.Time     `json:"createdAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type migration struct {
	version int
	name    string
	apply   func(doc *document, tags TagMaterializer)
}

// migrations run in order against any document older than their version.
// Every step is idempotent.
var migrations = []migration{
	{1, "todo-status", migrateTodoStatus},
	{2, "legacy-tags", migrateLegacyTags},
}

// migrateTodoStatus translates the legacy boolean completed field into the
// three-state status enum and discards the boolean.
func migrateTodoStatus(doc *document, _ TagMaterializer) {
	for _, n := range doc.Notes {
		for i := range n.Todos {
			td := &n.Todos[i]
			if td.Completed != nil && td.Status == nil {
				st := models.StatusIncomplete
				if *td.Completed {
					st = models.StatusCompleted
				}
				td.Status = &st
			}
			td.Completed = nil
		}
	}
}

// migrateLegacyTags rewrites the literal tag values "work" and "personal"
// to registry tag ids, materializing the tags by name when absent. The
// bumped schema version gates the scan from ever running again.
func migrateLegacyTags(doc *document, tags TagMaterializer) {
	if tags == nil {
		return
	}
	for _, n := range doc.Notes {
		for i, t := range n.Tags {
			switch t {
			case legacyTagWork:
				n.Tags[i] = tags.FindOrCreateByName(legacyTagWork, models.ColorBlue).ID
			case legacyTagPersonal:
				n.Tags[i] = tags.FindOrCreateByName(legacyTagPersonal, models.ColorGreen).ID
			}
		}
	}
}

// decodeDocument parses persisted bytes. A bare JSON array (the earliest
// persisted shape, before the document wrapper existed) is read as
// schema version 0.
func decodeDocument(raw []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Notes != nil {
		return &doc, nil
	}
	var notes []*rawNote
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, fmt.Errorf("notestore: decode document: %w", err)
	}
	return &document{SchemaVersion: 0, Notes: notes}, nil
}

// Load rehydrates the collection from persisted bytes, then runs pending
// migrations and date auto-advance, in that order. Malformed bytes reset
// the store to an empty collection; startup never fails on bad state.
// Listeners are notified once so the migrated document is persisted.
func (s *Store) Load(raw []byte, tags TagMaterializer, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	s.mu.Lock()
	doc := &document{SchemaVersion: SchemaVersion}
	if len(raw) > 0 {
		parsed, err := decodeDocument(raw)
		if err != nil {
			logger.Warn("notestore: malformed persisted state, starting empty",
				slog.String("error", err.Error()))
		} else {
			doc = parsed
		}
	}

	for _, m := range migrations {
		if doc.SchemaVersion >= m.version {
			continue
		}
		m.apply(doc, tags)
		doc.SchemaVersion = m.version
		logger.Info("notestore: applied migration",
			slog.String("name", m.name),
			slog.Int("version", m.version))
	}

	s.notes = materialize(doc, s.clk.Now())
	s.reseedCountersLocked()
	if n := s.advanceDatesLocked(s.clk.Today()); n > 0 {
		logger.Info("notestore: auto-advanced notes", slog.Int("count", n))
	}
	s.mu.Unlock()
	s.notify()
}

// materialize converts the migrated raw document into domain notes,
// normalizing the CompletedAt invariant. Notes with an unknown type are
// dropped rather than failing the whole load.
func materialize(doc *document, now time.Time) []models.Note {
	out := make([]models.Note, 0, len(doc.Notes))
	for _, rn := range doc.Notes {
		tags := rn.Tags
		if tags == nil {
			tags = []string{}
		}
		meta := models.NoteMeta{
			ID:          rn.ID,
			Name:        rn.Name,
			CreatedAt:   rn.CreatedAt,
			Date:        rn.Date,
			Tags:        tags,
			AutoAdvance: rn.AutoAdvance,
			Archived:    rn.Archived,
		}
		switch rn.Type {
		case models.KindTask:
			task := &models.TaskNote{NoteMeta: meta, Todos: make([]models.Todo, 0, len(rn.Todos))}
			for _, rt := range rn.Todos {
				task.Todos = append(task.Todos, materializeTodo(rt, now))
			}
			out = append(out, task)
		case models.KindText:
			var content string
			if rn.Content != nil {
				content = *rn.Content
			}
			out = append(out, &models.TextNote{NoteMeta: meta, Content: content})
		}
	}
	return out
}

func materializeTodo(rt rawTodo, now time.Time) models.Todo {
	st := models.StatusIncomplete
	switch {
	case rt.Status != nil && rt.Status.IsValid():
		st = *rt.Status
	case rt.Completed != nil && *rt.Completed:
		st = models.StatusCompleted
	}
	td := models.Todo{
		ID:          rt.ID,
		Title:       rt.Title,
		Status:      st,
		CreatedAt:   rt.CreatedAt,
		CompletedAt: rt.CompletedAt,
	}
	// CompletedAt is set exactly when the status is completed.
	if td.Status != models.StatusCompleted {
		td.CompletedAt = nil
	} else if td.CompletedAt == nil {
		stamped := now
		td.CompletedAt = &stamped
	}
	return td
}

// Export serializes the collection as the current-version document.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(struct {
		SchemaVersion int           `json:"schemaVersion"`
		Notes         []models.Note `json:"notes"`
	}{SchemaVersion, s.notes})
}
