package tagstore

import (
	"testing"

	"github.com/dotolabs/doto/internal/models"
)

func TestAddAndFind(t *testing.T) {
	r := New()
	tag, err := r.Add("work", models.ColorBlue)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tag.ID == "" {
		t.Error("tag id should be assigned")
	}
	got, ok := r.Find(tag.ID)
	if !ok || got.Name != "work" || got.Color != models.ColorBlue {
		t.Errorf("Find = %+v, %v", got, ok)
	}
	if _, ok := r.Find("missing"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestAddValidation(t *testing.T) {
	r := New()
	if _, err := r.Add("", models.ColorBlue); err == nil {
		t.Error("empty name should be rejected")
	}
	if _, err := r.Add("x", models.Color("neon")); err == nil {
		t.Error("unknown color should be rejected")
	}
	if len(r.All()) != 0 {
		t.Errorf("rejected adds must not mutate: %v", r.All())
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	r := New()
	a, _ := r.Add("a", models.ColorRed)
	b, _ := r.Add("b", models.ColorRed)
	if a.ID == b.ID {
		t.Errorf("ids collide: %q", a.ID)
	}
}

func TestRemoveCascades(t *testing.T) {
	r := New()
	tag, _ := r.Add("work", models.ColorBlue)

	var cascaded []string
	r.OnRemove(func(id string) { cascaded = append(cascaded, id) })

	r.Remove(tag.ID)
	if len(r.All()) != 0 {
		t.Errorf("tag not removed: %v", r.All())
	}
	if len(cascaded) != 1 || cascaded[0] != tag.ID {
		t.Errorf("cascade = %v", cascaded)
	}

	// Unknown ids are ignored and do not cascade.
	r.Remove("missing")
	if len(cascaded) != 1 {
		t.Errorf("unknown id cascaded: %v", cascaded)
	}
}

func TestOnChangeFires(t *testing.T) {
	r := New()
	var calls int
	r.OnChange(func() { calls++ })

	tag, _ := r.Add("a", models.ColorRed)
	r.Remove(tag.ID)
	r.Remove("missing")
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestLoadExportRoundTrip(t *testing.T) {
	r := New()
	r.Add("work", models.ColorBlue)
	r.Add("personal", models.ColorGreen)
	data, err := r.Export()
	if err != nil {
		t.Fatal(err)
	}

	r2 := New()
	r2.Load(data, nil)
	got := r2.All()
	if len(got) != 2 || got[0].Name != "work" || got[1].Name != "personal" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestLoadMalformedStartsEmpty(t *testing.T) {
	r := New()
	r.Add("stale", models.ColorRed)
	r.Load([]byte(`{"oops`), nil)
	if len(r.All()) != 0 {
		t.Errorf("malformed state should reset: %v", r.All())
	}
}

func TestFindOrCreateByName(t *testing.T) {
	r := New()
	first := r.FindOrCreateByName("work", models.ColorBlue)
	second := r.FindOrCreateByName("work", models.ColorRed)
	if first.ID != second.ID {
		t.Errorf("same name should resolve to same tag: %q vs %q", first.ID, second.ID)
	}
	if second.Color != models.ColorBlue {
		t.Errorf("existing tag keeps its color, got %q", second.Color)
	}
	if len(r.All()) != 1 {
		t.Errorf("registry = %v", r.All())
	}
}
