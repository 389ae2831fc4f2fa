package rag

import "time"

// QueryRequest represents a similarity query.
type QueryRequest struct {
	// Text is embedded and compared against stored chunks.
	Text string `json:"text"`
	// K is the number of chunks to return. Zero selects the engine default; values above MaxK are clamped.
	K int `json:"k,omitempty"`
	// MaxDistance drops chunks at or beyond this distance. Zero selects the engine default.
	MaxDistance float64 `json:"max_distance,omitempty"`
	// Folder optionally restricts the search to one folder (exact name).
	Folder string `json:"folder,omitempty"`
}

// Result is one chunk returned by a query.
type Result struct {
	ChunkID       int64     `json:"chunk_id"`
	NoteID        string    `json:"note_id"`
	NoteTitle     string    `json:"note_title"`
	FolderName    string    `json:"folder_name"`
	NoteUpdatedAt time.Time `json:"note_updated_at"`
	// ChunkIndex is the chunk's position within its note.
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
	// Rank is the 1-based position in the results.
	Rank int `json:"rank"`
}

// QueryResponse holds the chunks closest to the query, nearest first.
type QueryResponse struct {
	Results     []Result `json:"results"`
	K           int      `json:"k"`
	MaxDistance float64  `json:"max_distance"`
}
