package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/dotolabs/doto/internal/models"
	"github.com/dotolabs/doto/internal/notestore"
	"github.com/dotolabs/doto/internal/tagstore"
	"github.com/dotolabs/doto/internal/testutil"
)

// testEnv builds a store, registry, and router pinned to 2024-06-01.
// authToken="" means disabled mode; a non-empty token enables token mode.
func testEnv(t *testing.T, authToken string) (*notestore.Store, *tagstore.Registry, http.Handler) {
	t.Helper()
	clk := testutil.FixedClock(t, "2024-06-01")
	store := notestore.New(clk)
	tags := tagstore.New()
	tags.OnRemove(func(id string) { store.RemoveTagFromAllNotes(id) })
	router := NewRouter(store, tags, clk, authToken != "", authToken, nil)
	return store, tags, router
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createdID(t *testing.T, w *httptest.ResponseRecorder) int64 {
	t.Helper()
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.ID
}

func TestCreateAndGetNote(t *testing.T) {
	_, _, router := testEnv(t, "")

	id := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "groceries", Type: "task"}))

	w := do(t, router, http.MethodGet, "/notes/"+itoa(id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note struct {
		Type string `json:"type"`
		Name string `json:"name"`
		Date string `json:"currentDate"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatal(err)
	}
	if note.Type != "task" || note.Name != "groceries" || note.Date != "2024-06-01" {
		t.Errorf("note = %+v", note)
	}
}

func TestGetNoteNotFound(t *testing.T) {
	_, _, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/notes/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateNoteMalformedDateAnchorsToToday(t *testing.T) {
	_, _, router := testEnv(t, "")
	id := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "groceries", Type: "task", Date: "not-a-date"}))

	w := do(t, router, http.MethodGet, "/notes/"+itoa(id), nil)
	var note struct {
		Date string `json:"currentDate"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatal(err)
	}
	if note.Date != "2024-06-01" {
		t.Errorf("currentDate = %q, want today", note.Date)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	_, _, router := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Type: "task"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Name: "x", Type: "audio"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad type: status = %d", w.Code)
	}
}

func TestListNotes(t *testing.T) {
	_, _, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Name: "a", Type: "task"})
	do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Name: "b", Type: "text"})

	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Errorf("total = %d", resp.Total)
	}
}

func TestUpdateNotePatchFields(t *testing.T) {
	store, _, router := testEnv(t, "")
	id := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "draft", Type: "text"}))

	name, date, content := "final", "2024-07-01", "hello"
	w := do(t, router, http.MethodPatch, "/notes/"+itoa(id),
		UpdateNoteRequest{Name: &name, Date: &date, Content: &content})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}

	n, _ := store.Note(id)
	text := n.(*models.TextNote)
	if text.Name != "final" || text.Date != "2024-07-01" || text.Content != "hello" {
		t.Errorf("note = %+v", text)
	}
}

func TestTodoLifecycle(t *testing.T) {
	store, _, router := testEnv(t, "")
	nid := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "a", Type: "task"}))
	tid := createdID(t, do(t, router, http.MethodPost, "/notes/"+itoa(nid)+"/todos",
		CreateTodoRequest{Title: "milk"}))

	toggle := func() {
		w := do(t, router, http.MethodPost, "/notes/"+itoa(nid)+"/todos/"+itoa(tid)+"/toggle", nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("toggle status = %d", w.Code)
		}
	}
	status := func() models.Status {
		n, _ := store.Note(nid)
		return n.(*models.TaskNote).Todos[0].Status
	}

	toggle()
	if got := status(); got != models.StatusInProgress {
		t.Errorf("after 1 toggle: %q", got)
	}
	toggle()
	if got := status(); got != models.StatusCompleted {
		t.Errorf("after 2 toggles: %q", got)
	}
	toggle()
	if got := status(); got != models.StatusIncomplete {
		t.Errorf("after 3 toggles: %q", got)
	}

	w := do(t, router, http.MethodDelete, "/notes/"+itoa(nid)+"/todos/"+itoa(tid), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	n, _ := store.Note(nid)
	if got := n.(*models.TaskNote).Todos; len(got) != 0 {
		t.Errorf("todos = %+v", got)
	}
}

func TestCreateTodoOnTextNote(t *testing.T) {
	_, _, router := testEnv(t, "")
	id := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "n", Type: "text"}))
	w := do(t, router, http.MethodPost, "/notes/"+itoa(id)+"/todos", CreateTodoRequest{Title: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDuplicateNoteEndpoint(t *testing.T) {
	store, _, router := testEnv(t, "")
	id := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "sprint", Type: "task"}))
	do(t, router, http.MethodPost, "/notes/"+itoa(id)+"/todos", CreateTodoRequest{Title: "open"})

	w := do(t, router, http.MethodPost, "/notes/"+itoa(id)+"/duplicate",
		DuplicateNoteRequest{TargetDate: "2024-06-08"})
	newID := createdID(t, w)

	src, _ := store.Note(id)
	if !src.Meta().Archived {
		t.Error("source should be archived")
	}
	dup, _ := store.Note(newID)
	if dup.Meta().Date != "2024-06-08" {
		t.Errorf("dup date = %q", dup.Meta().Date)
	}
}

func TestMoveTodoToDateEndpoint(t *testing.T) {
	store, _, router := testEnv(t, "")
	src := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "src", Type: "task"}))
	do(t, router, http.MethodPost, "/notes/"+itoa(src)+"/todos", CreateTodoRequest{Title: "x"})

	w := do(t, router, http.MethodPost, "/todos/move-to-date",
		MoveTodoToDateRequest{FromNoteID: src, TodoIndex: 0, TargetDate: "2024-06-09"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if store.Len() != 2 {
		t.Errorf("len = %d, want a created target note", store.Len())
	}
}

func TestTagEndpointsWithCascade(t *testing.T) {
	store, _, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/tags", CreateTagRequest{Name: "work", Color: "blue"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tag: %d %s", w.Code, w.Body.String())
	}
	var tag models.Tag
	if err := json.Unmarshal(w.Body.Bytes(), &tag); err != nil {
		t.Fatal(err)
	}

	if w := do(t, router, http.MethodPost, "/tags", CreateTagRequest{Name: "x", Color: "neon"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad color: status = %d", w.Code)
	}

	nid := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "n", Type: "task"}))
	tagID := tag.ID
	do(t, router, http.MethodPatch, "/notes/"+itoa(nid), UpdateNoteRequest{TagID: &tagID})

	if w := do(t, router, http.MethodDelete, "/tags/"+tag.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete tag: %d", w.Code)
	}
	n, _ := store.Note(nid)
	if got := n.Meta().Tags; len(got) != 0 {
		t.Errorf("cascade failed, tags = %v", got)
	}
	if w := do(t, router, http.MethodGet, "/tags/"+tag.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted tag: %d", w.Code)
	}
}

func TestBackupRoundTripOverHTTP(t *testing.T) {
	_, _, router := testEnv(t, "")
	nid := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "a", Type: "task"}))
	do(t, router, http.MethodPost, "/notes/"+itoa(nid)+"/todos", CreateTodoRequest{Title: "x"})

	w := do(t, router, http.MethodGet, "/backup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backup status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "doto-backup-2024-06-01.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// A fresh instance accepts its own backup.
	store2, _, router2 := testEnv(t, "")
	w2 := do2(t, router2, http.MethodPost, "/import", w.Body.Bytes())
	if w2.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w2.Code, w2.Body.String())
	}
	var resp ImportResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Imported != 1 || store2.Len() != 1 {
		t.Errorf("imported = %d, len = %d", resp.Imported, store2.Len())
	}
}

func TestImportRejectsInvalidBackup(t *testing.T) {
	store, _, router := testEnv(t, "")
	store.AddTaskNote("keep", "")

	w := do2(t, router, http.MethodPost, "/import", []byte(`{"version":2,"notes":[]}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unsupported backup version") {
		t.Errorf("body = %s", w.Body.String())
	}
	if store.Len() != 1 {
		t.Error("failed import must not touch the collection")
	}
}

func TestExportMarkdownEndpoint(t *testing.T) {
	_, _, router := testEnv(t, "")
	nid := createdID(t, do(t, router, http.MethodPost, "/notes",
		CreateNoteRequest{Name: "a", Type: "task"}))
	do(t, router, http.MethodPost, "/notes/"+itoa(nid)+"/todos", CreateTodoRequest{Title: "x"})

	w := do(t, router, http.MethodGet, "/export/markdown", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "- [ ] x") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/export/notes/"+itoa(nid)+"/markdown", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("single note status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "a.md") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestExportZipEndpoint(t *testing.T) {
	_, _, router := testEnv(t, "")
	do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Name: "a", Type: "task"})

	w := do(t, router, http.MethodGet, "/export/zip", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestAuthTokenMode(t *testing.T) {
	_, _, router := testEnv(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", w.Code)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	_, _, router := testEnv(t, "")
	w := do2(t, router, http.MethodPost, "/notes", []byte(`{"name":`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

// do2 sends a raw byte body.
func do2(t *testing.T, router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
