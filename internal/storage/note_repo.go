package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NoteRepo provides methods for note operations.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// UpsertNote inserts a note or replaces every column of an existing one with the same ID.
func (r *NoteRepo) UpsertNote(ctx context.Context, note *Note) error {
	if note.ID == "" {
		return &WriteError{Op: "upsert note", Err: errors.New("note id is empty")}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, folder_id, folder_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 title = excluded.title, folder_id = excluded.folder_id, folder_name = excluded.folder_name,
		 created_at = excluded.created_at, updated_at = excluded.updated_at`,
		note.ID, note.Title, note.FolderID, note.FolderName,
		formatTime(note.CreatedAt), formatTime(note.UpdatedAt),
	)
	if err != nil {
		return &WriteError{Op: "upsert note", ID: note.ID, Err: err}
	}
	return nil
}

// GetNote gets a note by ID. Returns ErrNotFound if not found.
func (r *NoteRepo) GetNote(ctx context.Context, id string) (*Note, error) {
	var note Note
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, folder_id, folder_name, created_at, updated_at FROM notes WHERE id = ?",
		id,
	).Scan(&note.ID, &note.Title, &note.FolderID, &note.FolderName, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}

	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &note, nil
}

// CountNotes returns the number of stored notes.
func (r *NoteRepo) CountNotes(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// CountNotesWithoutChunks counts notes that ended up with no stored chunk.
func (r *NoteRepo) CountNotesWithoutChunks(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes
		 WHERE id NOT IN (SELECT DISTINCT note_id FROM chunks)`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes without chunks: %w", err)
	}
	return count, nil
}

// ListFolders returns the distinct folder names of stored notes in alphabetical order.
func (r *NoteRepo) ListFolders(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT folder_name FROM notes ORDER BY folder_name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	folders := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return folders, nil
}

// deleteNote deletes the note row; its chunks go with it through the foreign key.
func (r *NoteRepo) deleteNote(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return &WriteError{Op: "delete note", ID: id, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// timeLayout is how timestamps are persisted.
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
