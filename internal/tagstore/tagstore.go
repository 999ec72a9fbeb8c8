// Package tagstore owns the flat set of user-defined tags. Notes hold
// weak references to tags by id; deleting a tag cascades through a hook so
// no note keeps a dangling reference.
package tagstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/dotolabs/doto/internal/apperr"
	"github.com/dotolabs/doto/internal/models"
)

// Key is the persistence key for the tag registry document.
const Key = "doto-tags"

// Registry is the process-wide tag collection. Construct one per process
// (or per test) with New; all methods are safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	tags []models.Tag

	listenerMu sync.Mutex
	listeners  []func()
	onRemove   func(tagID string)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tags: []models.Tag{}}
}

// OnChange registers fn to be called after every registry mutation.
func (r *Registry) OnChange(fn func()) {
	r.listenerMu.Lock()
	r.listeners = append(r.listeners, fn)
	r.listenerMu.Unlock()
}

// OnRemove registers the cascade hook invoked with the id of every
// removed tag. The note store wires RemoveTagFromAllNotes here.
func (r *Registry) OnRemove(fn func(tagID string)) {
	r.listenerMu.Lock()
	r.onRemove = fn
	r.listenerMu.Unlock()
}

func (r *Registry) notify() {
	r.listenerMu.Lock()
	fns := make([]func(), len(r.listeners))
	copy(fns, r.listeners)
	r.listenerMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Load rehydrates the registry from persisted bytes. Malformed bytes
// reset it to empty.
func (r *Registry) Load(raw []byte, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.mu.Lock()
	r.tags = []models.Tag{}
	if len(raw) > 0 {
		var tags []models.Tag
		if err := json.Unmarshal(raw, &tags); err != nil {
			logger.Warn("tagstore: malformed persisted state, starting empty",
				slog.String("error", err.Error()))
		} else if tags != nil {
			r.tags = tags
		}
	}
	r.mu.Unlock()
}

// Export serializes the registry.
func (r *Registry) Export() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return json.Marshal(r.tags)
}

// Add creates a new tag with a fresh id.
func (r *Registry) Add(name string, color models.Color) (models.Tag, error) {
	if err := validation.Validate(name, validation.Required); err != nil {
		return models.Tag{}, fmt.Errorf("tagstore: name: %w", err)
	}
	if !color.IsValid() {
		return models.Tag{}, fmt.Errorf("tagstore: unknown color %q: %w", color, apperr.ErrInvalidInput)
	}
	tag := models.Tag{ID: uuid.NewString(), Name: name, Color: color}
	r.mu.Lock()
	r.tags = append(r.tags, tag)
	r.mu.Unlock()
	r.notify()
	return tag, nil
}

// Remove deletes the tag and cascades the removal through the OnRemove
// hook. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	removed := false
	for i, t := range r.tags {
		if t.ID == id {
			r.tags = append(r.tags[:i], r.tags[i+1:]...)
			removed = true
			break
		}
	}
	r.mu.Unlock()
	if !removed {
		return
	}

	r.listenerMu.Lock()
	cascade := r.onRemove
	r.listenerMu.Unlock()
	if cascade != nil {
		cascade(id)
	}
	r.notify()
}

// Find returns the tag with the given id.
func (r *Registry) Find(id string) (models.Tag, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tag{}, false
}

// All returns the tags in insertion order.
func (r *Registry) All() []models.Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Tag, len(r.tags))
	copy(out, r.tags)
	return out
}

// FindOrCreateByName returns the first tag with the given name, creating
// it when absent. The legacy tag migration resolves literal tag values
// through this.
func (r *Registry) FindOrCreateByName(name string, color models.Color) models.Tag {
	r.mu.Lock()
	for _, t := range r.tags {
		if t.Name == name {
			r.mu.Unlock()
			return t
		}
	}
	tag := models.Tag{ID: uuid.NewString(), Name: name, Color: color}
	r.tags = append(r.tags, tag)
	r.mu.Unlock()
	r.notify()
	return tag
}
