package indexer

import (
	"sync/atomic"
	"time"
)

// Chunk skip reasons reported in Summary.ChunksSkipped.
const (
	SkipEmbedding = "embedding"
	SkipStorage   = "storage"
)

// Summary reports the outcome of one ingestion run.
type Summary struct {
	RunID           string         `json:"run_id"`
	TotalReported   int            `json:"total_reported"` // -1 when the source could not count
	NotesSeen       int            `json:"notes_seen"`
	NotesSaved      int            `json:"notes_saved"`
	NotesFailed     int            `json:"notes_failed"`
	NotesDiscarded  int            `json:"notes_discarded"`
	ChunksAttempted int            `json:"chunks_attempted"`
	ChunksSaved     int            `json:"chunks_saved"`
	ChunksSkipped   map[string]int `json:"chunks_skipped"`
	Duration        time.Duration  `json:"duration"`
}

type runCounters struct {
	total int

	notesSeen       atomic.Int64
	notesProcessed  atomic.Int64
	notesSaved      atomic.Int64
	notesFailed     atomic.Int64
	notesDiscarded  atomic.Int64
	chunksAttempted atomic.Int64
	chunksSaved     atomic.Int64
	skipEmbedding   atomic.Int64
	skipStorage     atomic.Int64
}

func newRunCounters() *runCounters {
	return &runCounters{total: -1}
}

func (c *runCounters) summary() Summary {
	return Summary{
		TotalReported:   c.total,
		NotesSeen:       int(c.notesSeen.Load()),
		NotesSaved:      int(c.notesSaved.Load()),
		NotesFailed:     int(c.notesFailed.Load()),
		NotesDiscarded:  int(c.notesDiscarded.Load()),
		ChunksAttempted: int(c.chunksAttempted.Load()),
		ChunksSaved:     int(c.chunksSaved.Load()),
		ChunksSkipped: map[string]int{
			SkipEmbedding: int(c.skipEmbedding.Load()),
			SkipStorage:   int(c.skipStorage.Load()),
		},
	}
}
