package storage

import "time"

// Note is one ingested source record. ID is the source's identifier and is
// stable across re-ingestion.
type Note struct {
	ID         string
	Title      string
	FolderID   string
	FolderName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Chunk is a bounded window of a note's normalized body, prefixed with the
// title header. NoteTitle, FolderName and NoteUpdatedAt are copied from the
// note when the chunk is created and are not re-synced afterwards.
type Chunk struct {
	ID            int64 // Assigned by ChunkRepo.SaveChunk, never 0 or 1
	NoteID        string
	NoteTitle     string
	FolderName    string
	NoteUpdatedAt time.Time
	Index         int // Position within the note (starts at 0)
	Content       string
}

// NearestQuery describes a constrained k-nearest-neighbor search.
type NearestQuery struct {
	Vector      []float32
	K           int
	MaxDistance float64 // Results must have distance strictly below this value
	Folder      string  // Optional equality filter on folder name
}

// Neighbor is a chunk returned by FindNearest with its distance to the query.
type Neighbor struct {
	Chunk
	Distance float64
}

// Hit is a raw vector index match before it is joined back to its chunk row.
type Hit struct {
	ChunkID  int64
	Distance float64
}
