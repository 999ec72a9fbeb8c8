// Package testutil provides shared test helpers for stores and clocks.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/kvstore"
)

// TestKV creates a temporary SQLite key-value store that is automatically
// cleaned up.
func TestKV(t *testing.T) *kvstore.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "doto-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	kv, err := kvstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

// FixedClock returns a clock pinned to noon UTC on the given date.
func FixedClock(t *testing.T, date string) clock.Fixed {
	t.Helper()
	day, err := time.Parse(clock.DateLayout, date)
	if err != nil {
		t.Fatalf("bad date %q: %v", date, err)
	}
	return clock.Fixed{T: day.Add(12 * time.Hour)}
}
