package notestore

import "github.com/dotolabs/doto/internal/clock"

// advanceDatesLocked rolls forward every auto-advancing note whose anchor
// date is strictly earlier than today, but only while the note still has
// open content: a task note with a non-completed todo, or a text note
// with non-blank text. Fully resolved notes keep their old date.
//
// Idempotent given no further passage of time. Callers hold s.mu.
func (s *Store) advanceDatesLocked(today string) int {
	advanced := 0
	for _, n := range s.notes {
		meta := n.Meta()
		if !meta.AutoAdvance || meta.Date == "" {
			continue
		}
		if !clock.Before(meta.Date, today) {
			continue
		}
		if !n.Open() {
			continue
		}
		meta.Date = today
		advanced++
	}
	return advanced
}
