package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index.go -package=mocks notechat/internal/storage VectorIndex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// VectorIndex stores chunk vectors and answers nearest-neighbor searches.
// Put receives the transaction that carries the matching chunk row so an index
// living inside SQLite commits or rolls back together with it.
type VectorIndex interface {
	// Put stores the vector for chunkID as part of tx.
	Put(ctx context.Context, tx *sql.Tx, chunkID int64, folderName string, vec []float32) error
	// Remove deletes vectors outside of any chunk transaction.
	Remove(ctx context.Context, chunkIDs ...int64) error
	// Search returns up to k hits ordered by ascending distance, optionally
	// restricted to one folder.
	Search(ctx context.Context, vec []float32, k int, folder string) ([]Hit, error)
	// Reset removes every vector. Store.ClearAll calls it only after the
	// tables have been emptied and committed.
	Reset(ctx context.Context) error
}

// SQLiteVecIndex implements VectorIndex with the sqlite-vec chunk_embeddings table.
type SQLiteVecIndex struct {
	db *sql.DB
}

var _ VectorIndex = (*SQLiteVecIndex)(nil)

// NewSQLiteVecIndex creates an index over the chunk_embeddings vec0 table.
func NewSQLiteVecIndex(db *sql.DB) *SQLiteVecIndex {
	return &SQLiteVecIndex{db: db}
}

// Put inserts the vector row inside tx.
func (ix *SQLiteVecIndex) Put(ctx context.Context, tx *sql.Tx, chunkID int64, folderName string, vec []float32) error {
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO chunk_embeddings (chunk_id, folder_name, embedding) VALUES (?, ?, ?)",
		chunkID, folderName, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// Remove deletes vector rows. The chunks trigger already does this when chunk
// rows are deleted, so this only matters for rows written without a chunk.
func (ix *SQLiteVecIndex) Remove(ctx context.Context, chunkIDs ...int64) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	query, args := inClause("DELETE FROM chunk_embeddings WHERE chunk_id IN (%s)", chunkIDs)
	if _, err := ix.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}

// Search runs a KNN query against the vec0 table. The folder filter is pushed
// into the KNN constraint so that k counts only matching rows.
func (ix *SQLiteVecIndex) Search(ctx context.Context, vec []float32, k int, folder string) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query: %w", err)
	}

	query := `SELECT chunk_id, distance FROM chunk_embeddings
		WHERE embedding MATCH ? AND k = ?`
	args := []any{blob, k}
	if folder != "" {
		query += " AND folder_name = ?"
		args = append(args, folder)
	}
	query += " ORDER BY distance ASC"

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChunkID, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return hits, nil
}

// Reset deletes every vector row. ClearAll has already emptied the table in
// its transaction, so this is a no-op there.
func (ix *SQLiteVecIndex) Reset(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, "DELETE FROM chunk_embeddings"); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	return nil
}

// inClause expands a single %s in format into one placeholder per id.
func inClause(format string, ids []int64) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, placeholders), args
}
