package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync/atomic"
)

// FirstChunkID is the first ID handed out by the chunk sequence. IDs 0 and 1 are
// never used so the vector index always receives a positive, non-trivial key.
const FirstChunkID = 2

// ChunkRepo provides methods for chunk operations.
// Chunk IDs come from a sequence owned by the repo; it is safe for concurrent use.
type ChunkRepo struct {
	db    *sql.DB
	index VectorIndex
	seq   atomic.Int64
}

// NewChunkRepo creates a new ChunkRepo writing vectors to index.
// The ID sequence continues after the highest chunk ID already stored.
func NewChunkRepo(ctx context.Context, db *sql.DB, index VectorIndex) (*ChunkRepo, error) {
	r := &ChunkRepo{db: db, index: index}

	var maxID int64
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(chunk_id), 0) FROM chunks").Scan(&maxID); err != nil {
		return nil, fmt.Errorf("failed to read chunk sequence: %w", err)
	}
	r.resetSequence(maxID)
	return r, nil
}

// resetSequence makes the next allocated ID max(last+1, FirstChunkID).
func (r *ChunkRepo) resetSequence(last int64) {
	if last < FirstChunkID-1 {
		last = FirstChunkID - 1
	}
	r.seq.Store(last)
}

// SaveChunk assigns chunk.ID and writes the chunk row and its vector in one
// transaction. If either write fails neither is committed and chunk.ID is reset to 0.
func (r *ChunkRepo) SaveChunk(ctx context.Context, chunk *Chunk, vec []float32) error {
	chunk.ID = r.seq.Add(1)
	if err := r.saveChunk(ctx, chunk, vec); err != nil {
		id := chunk.ID
		chunk.ID = 0
		return &WriteError{Op: "save chunk", ID: fmt.Sprintf("%s#%d", chunk.NoteID, chunk.Index), Err: fmt.Errorf("chunk %d: %w", id, err)}
	}
	return nil
}

func (r *ChunkRepo) saveChunk(ctx context.Context, chunk *Chunk, vec []float32) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chunks (chunk_id, note_id, note_title, folder_name, note_updated, chunk_index, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.NoteID, chunk.NoteTitle, chunk.FolderName,
		formatTime(chunk.NoteUpdatedAt), chunk.Index, chunk.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	if err := r.index.Put(ctx, tx, chunk.ID, chunk.FolderName, vec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		// An external index already holds the point; take it back out.
		_ = r.index.Remove(ctx, chunk.ID)
		return fmt.Errorf("failed to commit chunk: %w", err)
	}
	return nil
}

// FindNearest returns the chunks closest to q.Vector with distance strictly
// below q.MaxDistance, ordered by ascending distance.
func (r *ChunkRepo) FindNearest(ctx context.Context, q NearestQuery) ([]Neighbor, error) {
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	hits, err := r.index.Search(ctx, q.Vector, q.K, q.Folder)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	kept := hits[:0]
	for _, h := range hits {
		if h.Distance < q.MaxDistance {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return []Neighbor{}, nil
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Distance < kept[j].Distance })

	ids := make([]int64, len(kept))
	for i, h := range kept {
		ids[i] = h.ChunkID
	}
	chunks, err := r.chunksByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(kept))
	for _, h := range kept {
		c, ok := chunks[h.ChunkID]
		if !ok {
			continue
		}
		if q.Folder != "" && c.FolderName != q.Folder {
			continue
		}
		neighbors = append(neighbors, Neighbor{Chunk: c, Distance: h.Distance})
	}
	return neighbors, nil
}

// ListChunksByNote returns the chunks of a note ordered by chunk index.
func (r *ChunkRepo) ListChunksByNote(ctx context.Context, noteID string) ([]Chunk, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chunk_id, note_id, note_title, folder_name, note_updated, chunk_index, content
		 FROM chunks WHERE note_id = ? ORDER BY chunk_index`,
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	return scanChunks(rows)
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepo) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// ChunkLengths returns the byte length of every stored chunk's content.
func (r *ChunkRepo) ChunkLengths(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT length(CAST(content AS BLOB)) FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk lengths: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	lengths := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan chunk length: %w", err)
		}
		lengths = append(lengths, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lengths, nil
}

// listIDsByNote returns the chunk IDs of a note.
func (r *ChunkRepo) listIDsByNote(ctx context.Context, noteID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT chunk_id FROM chunks WHERE note_id = ? ORDER BY chunk_id", noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

func (r *ChunkRepo) chunksByID(ctx context.Context, ids []int64) (map[int64]Chunk, error) {
	query, args := inClause(
		`SELECT chunk_id, note_id, note_title, folder_name, note_updated, chunk_index, content
		 FROM chunks WHERE chunk_id IN (%s)`, ids)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	list, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Chunk, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}
	return byID, nil
}

func scanChunks(rows *sql.Rows) ([]Chunk, error) {
	defer func() {
		_ = rows.Close()
	}()

	chunks := []Chunk{}
	for rows.Next() {
		var c Chunk
		var updated string
		if err := rows.Scan(&c.ID, &c.NoteID, &c.NoteTitle, &c.FolderName, &updated, &c.Index, &c.Content); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		t, err := parseTime(updated)
		if err != nil {
			return nil, fmt.Errorf("failed to parse note_updated: %w", err)
		}
		c.NoteUpdatedAt = t
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}
