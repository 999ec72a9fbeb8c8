package internal

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/dotolabs/doto/internal/models"
	"github.com/dotolabs/doto/internal/notestore"
	"github.com/dotolabs/doto/internal/tagstore"
	"github.com/dotolabs/doto/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestBuildStoresEmptyDatabase(t *testing.T) {
	kv := testutil.TestKV(t)
	clk := testutil.FixedClock(t, "2024-06-01")

	store, tags, err := BuildStores(kv, clk, quietLogger())
	if err != nil {
		t.Fatalf("BuildStores: %v", err)
	}
	if store.Len() != 0 || len(tags.All()) != 0 {
		t.Errorf("fresh database should yield empty stores")
	}

	// Mutations flow through to the key-value store.
	store.AddTaskNote("groceries", "")
	raw, err := kv.Get(notestore.Key)
	if err != nil {
		t.Fatalf("notes not persisted: %v", err)
	}
	if !strings.Contains(string(raw), "groceries") {
		t.Errorf("persisted notes = %s", raw)
	}

	tags.Add("work", models.ColorBlue)
	raw, err = kv.Get(tagstore.Key)
	if err != nil {
		t.Fatalf("tags not persisted: %v", err)
	}
	if !strings.Contains(string(raw), "work") {
		t.Errorf("persisted tags = %s", raw)
	}
}

func TestBuildStoresMigratesLegacyStateAndPersists(t *testing.T) {
	kv := testutil.TestKV(t)
	clk := testutil.FixedClock(t, "2024-06-01")

	legacy := `[{"type":"task","id":1,"name":"a","tags":["work"],"autoAdvance":false,
		"todos":[{"id":1,"title":"x","completed":true}]}]`
	if err := kv.Set(notestore.Key, []byte(legacy)); err != nil {
		t.Fatal(err)
	}

	store, tags, err := BuildStores(kv, clk, quietLogger())
	if err != nil {
		t.Fatalf("BuildStores: %v", err)
	}

	n, ok := store.Note(1)
	if !ok {
		t.Fatal("note missing after load")
	}
	task := n.(*models.TaskNote)
	if task.Todos[0].Status != models.StatusCompleted {
		t.Errorf("status = %q", task.Todos[0].Status)
	}
	if len(tags.All()) != 1 || tags.All()[0].Name != "work" {
		t.Errorf("tags = %+v", tags.All())
	}
	if task.Tags[0] != tags.All()[0].ID {
		t.Errorf("note tag %q should reference the materialized registry entry", task.Tags[0])
	}

	// The migrated document lands on disk at the current version without
	// waiting for the next mutation.
	raw, err := kv.Get(notestore.Key)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"schemaVersion":2`) {
		t.Errorf("persisted document = %s", raw)
	}
}

func TestBuildStoresTagRemovalCascades(t *testing.T) {
	kv := testutil.TestKV(t)
	clk := testutil.FixedClock(t, "2024-06-01")

	store, tags, err := BuildStores(kv, clk, quietLogger())
	if err != nil {
		t.Fatalf("BuildStores: %v", err)
	}

	tag, err := tags.Add("work", models.ColorBlue)
	if err != nil {
		t.Fatal(err)
	}
	id := store.AddTaskNote("a", "")
	store.UpdateNoteTag(id, tag.ID)

	tags.Remove(tag.ID)
	n, _ := store.Note(id)
	if got := n.Meta().Tags; len(got) != 0 {
		t.Errorf("cascade failed, tags = %v", got)
	}
	raw, err := kv.Get(notestore.Key)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), tag.ID) {
		t.Error("removed tag id still referenced in persisted notes")
	}
}

func TestBuildStoresSurvivesRestart(t *testing.T) {
	kv := testutil.TestKV(t)
	clk := testutil.FixedClock(t, "2024-06-01")

	store, _, err := BuildStores(kv, clk, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	id := store.AddTaskNote("a", "2024-06-01")
	store.AddTodo(id, "x")

	store2, _, err := BuildStores(kv, clk, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	n, ok := store2.Note(id)
	if !ok {
		t.Fatal("note lost across restart")
	}
	if got := n.(*models.TaskNote).Todos; len(got) != 1 || got[0].Title != "x" {
		t.Errorf("todos = %+v", got)
	}
}
