package storage

import (
	"database/sql"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDimensions is the vector size produced by nomic-embed-text.
const DefaultDimensions = 768

func init() {
	// Registers vec0 for every connection opened by the sqlite3 driver.
	sqlite_vec.Auto()
}

// New opens a SQLite database connection at the given path.
// Foreign keys are enabled per connection through the DSN so that every pooled
// connection enforces them, and WAL mode lets queries run during ingestion.
func New(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the notes, chunks and embeddings tables.
// It is idempotent and can be run multiple times safely. dimensions fixes the
// vector size of the embeddings index and must match the embedding model.
func Migrate(db *sql.DB, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be greater than 0", ErrSchema)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			folder_id TEXT NOT NULL,
			folder_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id INTEGER PRIMARY KEY,
			note_id TEXT NOT NULL,
			note_title TEXT NOT NULL,
			folder_name TEXT NOT NULL,
			note_updated TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (note_id) REFERENCES notes(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_note_id ON chunks(note_id);`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS chunk_embeddings USING vec0(
			chunk_id integer primary key,
			folder_name text,
			embedding float[%d]
		);`, dimensions),
		// vec0 rows are not covered by the foreign key, so cascade by trigger.
		`CREATE TRIGGER IF NOT EXISTS chunks_embeddings_cascade AFTER DELETE ON chunks
		BEGIN
			DELETE FROM chunk_embeddings WHERE chunk_id = OLD.chunk_id;
		END;`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: %v", ErrSchema, err)
		}
	}

	return nil
}
