package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"notechat/internal/storage"
	"notechat/internal/storage/mocks"
)

func newMockedStore(t *testing.T, index storage.VectorIndex) (*storage.Store, func(string) int) {
	t.Helper()

	store, db := newMockedStoreDB(t, index)
	count := func(table string) int {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		return n
	}
	return store, count
}

func newMockedStoreDB(t *testing.T, index storage.VectorIndex) (*storage.Store, *sql.DB) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db, 4); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	store, err := storage.NewStore(context.Background(), db, index)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store, db
}

func TestStore_SaveChunk_IndexFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockVectorIndex(ctrl)
	store, count := newMockedStore(t, index)
	ctx := context.Background()

	if err := store.UpsertNote(ctx, &storage.Note{ID: "n1", Title: "T", FolderName: "Home"}); err != nil {
		t.Fatalf("UpsertNote() error = %v", err)
	}

	index.EXPECT().
		Put(gomock.Any(), gomock.Any(), int64(storage.FirstChunkID), "Home", []float32{1, 2, 3, 4}).
		Return(errors.New("index unavailable"))

	chunk := &storage.Chunk{NoteID: "n1", NoteTitle: "T", FolderName: "Home", Content: "c"}
	err := store.SaveChunk(ctx, chunk, []float32{1, 2, 3, 4})
	var writeErr *storage.WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("SaveChunk() error = %v, want *WriteError", err)
	}
	if got := count("chunks"); got != 0 {
		t.Errorf("chunks rows after index failure = %d, want 0", got)
	}

	// The failed ID is not reused.
	index.EXPECT().
		Put(gomock.Any(), gomock.Any(), int64(storage.FirstChunkID+1), "Home", gomock.Any()).
		Return(nil)
	if err := store.SaveChunk(ctx, chunk, []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}
	if got := count("chunks"); got != 1 {
		t.Errorf("chunks rows = %d, want 1", got)
	}
}

func TestStore_ClearAll_ResetsIndexAfterCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockVectorIndex(ctrl)
	store, db := newMockedStoreDB(t, index)
	ctx := context.Background()

	if err := store.UpsertNote(ctx, &storage.Note{ID: "n1", Title: "T"}); err != nil {
		t.Fatalf("UpsertNote() error = %v", err)
	}

	index.EXPECT().Reset(gomock.Any()).DoAndReturn(func(context.Context) error {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&n); err != nil {
			t.Errorf("count notes during Reset: %v", err)
		}
		if n != 0 {
			t.Errorf("notes rows during Reset = %d, want 0 (committed)", n)
		}
		return nil
	})
	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
}

func TestStore_ClearAll_FailedTransactionSkipsIndexReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockVectorIndex(ctrl)
	store, db := newMockedStoreDB(t, index)
	ctx := context.Background()

	if err := store.UpsertNote(ctx, &storage.Note{ID: "n1", Title: "T", FolderName: "Home"}); err != nil {
		t.Fatalf("UpsertNote() error = %v", err)
	}
	index.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), "Home", gomock.Any()).Return(nil)
	if err := store.SaveChunk(ctx, &storage.Chunk{NoteID: "n1", FolderName: "Home", Content: "c"}, []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}

	if _, err := db.Exec(`CREATE TRIGGER block_clear BEFORE DELETE ON notes
		BEGIN SELECT RAISE(ABORT, 'clear blocked'); END;`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	// No Reset expectation: the controller fails the test if it is called.
	err := store.ClearAll(ctx)
	var writeErr *storage.WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("ClearAll() error = %v, want *WriteError", err)
	}

	var chunks, notes int
	if err := db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&chunks); err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&notes); err != nil {
		t.Fatalf("count notes: %v", err)
	}
	if chunks != 1 || notes != 1 {
		t.Errorf("rows after failed clear = %d chunks, %d notes, want 1 and 1", chunks, notes)
	}
}

func TestStore_ClearAll_IndexResetFailureStillClears(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockVectorIndex(ctrl)
	store, count := newMockedStore(t, index)
	ctx := context.Background()

	if err := store.UpsertNote(ctx, &storage.Note{ID: "n1", Title: "T"}); err != nil {
		t.Fatalf("UpsertNote() error = %v", err)
	}

	index.EXPECT().Reset(gomock.Any()).Return(errors.New("collection locked"))
	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if got := count("notes"); got != 0 {
		t.Errorf("notes rows = %d, want 0", got)
	}
}

func TestStore_DeleteNote_RemovesVectors(t *testing.T) {
	ctrl := gomock.NewController(t)
	index := mocks.NewMockVectorIndex(ctrl)
	store, count := newMockedStore(t, index)
	ctx := context.Background()

	if err := store.UpsertNote(ctx, &storage.Note{ID: "n1", Title: "T"}); err != nil {
		t.Fatalf("UpsertNote() error = %v", err)
	}
	index.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	for i := 0; i < 2; i++ {
		if err := store.SaveChunk(ctx, &storage.Chunk{NoteID: "n1", Index: i, Content: "c"}, []float32{0, 0, 0, 1}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
	}

	// A failing index only logs; the note is gone either way.
	index.EXPECT().
		Remove(gomock.Any(), int64(storage.FirstChunkID), int64(storage.FirstChunkID+1)).
		Return(errors.New("network down"))
	if err := store.DeleteNote(ctx, "n1"); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if got := count("chunks"); got != 0 {
		t.Errorf("chunks rows = %d, want 0", got)
	}
}
