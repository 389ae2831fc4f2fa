package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"notechat/internal/contextutil"
)

// tables lists every table owned by the store, in delete order.
var tables = []string{"chunk_embeddings", "chunks", "notes"}

// Store is the storage engine: notes, chunks and their vector index.
type Store struct {
	*NoteRepo
	*ChunkRepo
	db    *sql.DB
	index VectorIndex
}

// NewStore creates a Store over a migrated database. A nil index selects the
// sqlite-vec index living in the same database.
func NewStore(ctx context.Context, db *sql.DB, index VectorIndex) (*Store, error) {
	if index == nil {
		index = NewSQLiteVecIndex(db)
	}
	chunks, err := NewChunkRepo(ctx, db, index)
	if err != nil {
		return nil, err
	}
	return &Store{
		NoteRepo:  NewNoteRepo(db),
		ChunkRepo: chunks,
		db:        db,
		index:     index,
	}, nil
}

// ClearAll empties notes, chunks and embeddings in one transaction and restarts
// the chunk ID sequence. Foreign keys are switched off on the connection for
// the duration so the tables can be emptied in any order. The vector index is
// reset only once the transaction has committed.
func (s *Store) ClearAll(ctx context.Context) (err error) {
	logger := contextutil.LoggerFromContext(ctx)

	// PRAGMA foreign_keys is per connection and a no-op inside a transaction,
	// so pin one connection and toggle it around the transaction.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return &WriteError{Op: "clear", Err: err}
	}
	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return &WriteError{Op: "clear", Err: err}
	}
	defer func() {
		if _, fkErr := conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); fkErr != nil && err == nil {
			err = &WriteError{Op: "clear", Err: fmt.Errorf("failed to restore foreign keys: %w", fkErr)}
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Op: "clear", Err: err}
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return &WriteError{Op: "clear", ID: table, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &WriteError{Op: "clear", Err: err}
	}

	s.resetSequence(0)

	// Points left behind by a failed reset have no chunk row, so FindNearest
	// skips them and SaveChunk overwrites them as IDs are reused.
	if err := s.index.Reset(ctx); err != nil {
		logger.WarnContext(ctx, "failed to reset vector index, stale vectors remain", "error", err)
	}
	logger.InfoContext(ctx, "all tables cleared")
	return nil
}

// DeleteNote deletes a note together with its chunks and vectors.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	ids, err := s.listIDsByNote(ctx, id)
	if err != nil {
		return err
	}
	if err := s.deleteNote(ctx, id); err != nil {
		return err
	}
	if err := s.index.Remove(ctx, ids...); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to remove vectors of deleted note",
			"note_id", id, "count", len(ids), "error", err)
	}
	return nil
}

// CheckTables logs whether each required table exists and how many rows it holds.
// It returns the row counts by table name.
func (s *Store) CheckTables(ctx context.Context, logger *slog.Logger) (map[string]int, error) {
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var exists int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if exists == 0 {
			logger.WarnContext(ctx, "required table missing", "table", table)
			return nil, fmt.Errorf("%w: table %s missing", ErrSchema, table)
		}

		var rows int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&rows); err != nil {
			return nil, fmt.Errorf("failed to count table %s: %w", table, err)
		}
		counts[table] = rows
		logger.InfoContext(ctx, "table ready", "table", table, "rows", rows)
	}
	return counts, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
