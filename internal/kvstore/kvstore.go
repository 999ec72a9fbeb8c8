// Package kvstore provides the local key-value persistence layer. Each
// logical store (notes collection, tag registry) keeps one serialized JSON
// document under its own key.
package kvstore

// Store is the interface for key-value persistence.
type Store interface {
	// Get returns the value stored under key, or apperr.ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}

// Verify *SQLite satisfies Store at compile time.
var _ Store = (*SQLite)(nil)
