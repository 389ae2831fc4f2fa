package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestStore_ClearAll(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	note := seedNote(t, store, "n1", "Home")
	for i := 0; i < 3; i++ {
		if err := store.SaveChunk(ctx, newChunk(note, i), []float32{1, float32(i), 0, 0}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
	}

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	count, err := store.CountNotes(ctx)
	if err != nil {
		t.Fatalf("CountNotes() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountNotes() after ClearAll = %d, want 0", count)
	}
	for _, table := range tables {
		if got := countRows(t, store, table); got != 0 {
			t.Errorf("%s rows after ClearAll = %d, want 0", table, got)
		}
	}

	// Foreign keys are enforced again on every connection.
	var fk int
	if err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys error = %v", err)
	}
	if fk != 1 {
		t.Error("ClearAll() left foreign keys disabled")
	}

	// A fresh ingestion works and the sequence restarts.
	note = seedNote(t, store, "n1", "Home")
	c := newChunk(note, 0)
	if err := store.SaveChunk(ctx, c, []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("SaveChunk() after ClearAll error = %v", err)
	}
	if c.ID != FirstChunkID {
		t.Errorf("first chunk ID after ClearAll = %d, want %d", c.ID, FirstChunkID)
	}
}

func TestStore_NewStore_ContinuesSequence(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	note := seedNote(t, store, "n1", "Home")
	for i := 0; i < 2; i++ {
		if err := store.SaveChunk(ctx, newChunk(note, i), []float32{1, 0, 0, 0}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
	}

	reopened, err := NewStore(ctx, store.db, nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	c := newChunk(note, 2)
	if err := reopened.SaveChunk(ctx, c, []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}
	if c.ID != FirstChunkID+2 {
		t.Errorf("chunk ID after reopen = %d, want %d", c.ID, FirstChunkID+2)
	}
}

func TestStore_DeleteNote_Cascades(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	keep := seedNote(t, store, "keep", "Home")
	drop := seedNote(t, store, "drop", "Home")
	for i := 0; i < 2; i++ {
		if err := store.SaveChunk(ctx, newChunk(keep, i), []float32{1, 0, 0, 0}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
		if err := store.SaveChunk(ctx, newChunk(drop, i), []float32{0, 1, 0, 0}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
	}

	if err := store.DeleteNote(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}

	if got := countRows(t, store, "chunks"); got != 2 {
		t.Errorf("chunks rows = %d, want 2", got)
	}
	if got := countRows(t, store, "chunk_embeddings"); got != 2 {
		t.Errorf("chunk_embeddings rows = %d, want 2", got)
	}
	if err := store.DeleteNote(ctx, drop.ID); err != ErrNotFound {
		t.Errorf("DeleteNote() twice error = %v, want ErrNotFound", err)
	}

	without, err := store.CountNotesWithoutChunks(ctx)
	if err != nil {
		t.Fatalf("CountNotesWithoutChunks() error = %v", err)
	}
	if without != 0 {
		t.Errorf("CountNotesWithoutChunks() = %d, want 0", without)
	}
}

func TestStore_CheckTables(t *testing.T) {
	store := newTestDB(t)
	seedNote(t, store, "n1", "Home")

	counts, err := store.CheckTables(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("CheckTables() error = %v", err)
	}
	if counts["notes"] != 1 || counts["chunks"] != 0 {
		t.Errorf("CheckTables() = %v", counts)
	}
}
