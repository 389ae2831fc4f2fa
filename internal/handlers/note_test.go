package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"notechat/internal/storage"
)

func newNoteRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db, 4); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	ctx := context.Background()
	store, err := storage.NewStore(ctx, db, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	note := &storage.Note{
		ID:         "p12/abc",
		Title:      "Trip <Paris>",
		FolderName: "Travel",
		UpdatedAt:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	if err := store.UpsertNote(ctx, note); err != nil {
		t.Fatalf("UpsertNote() error = %v", err)
	}
	for i, text := range []string{"Title: Trip\n\nContent: Louvre", "Title: Trip\n\nContent: Orsay"} {
		c := &storage.Chunk{NoteID: note.ID, NoteTitle: note.Title, FolderName: note.FolderName, Index: i, Content: text}
		if err := store.SaveChunk(ctx, c, []float32{1, 0, 0, float32(i)}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
	}

	r := chi.NewRouter()
	r.Get("/notes/*", NewNoteHandler(store).ServeHTTP)
	return r
}

func TestNoteHandler_ServeHTTP(t *testing.T) {
	router := newNoteRouter(t)

	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantContains []string
	}{
		{
			name:       "renders note and chunks",
			path:       "/notes/p12%2Fabc",
			wantStatus: http.StatusOK,
			wantContains: []string{
				"Trip &lt;Paris&gt;",
				"Folder: Travel",
				"Content: Louvre",
				"Content: Orsay",
				"2 chunks",
			},
		},
		{
			name:       "unknown note",
			path:       "/notes/missing",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty id",
			path:       "/notes/",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v (body %q)", w.Code, tt.wantStatus, w.Body.String())
			}
			body := w.Body.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}
