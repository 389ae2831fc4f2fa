package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks notechat/internal/indexer Store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"notechat/internal/contextutil"
	"notechat/internal/llm"
	"notechat/internal/source"
	"notechat/internal/storage"
)

const (
	// DefaultEmbedWorkers bounds concurrent embedding requests.
	DefaultEmbedWorkers = 2
	// queueSize is how many parsed notes may wait for finalization.
	queueSize = 16
)

// Body formats understood by the pipeline.
const (
	BodyHTML     = "html"
	BodyMarkdown = "markdown"
)

// Store is the write side of the storage engine used during ingestion.
type Store interface {
	ClearAll(ctx context.Context) error
	UpsertNote(ctx context.Context, note *storage.Note) error
	SaveChunk(ctx context.Context, chunk *storage.Chunk, vec []float32) error
}

// RecordSource is the external process producing the record stream.
type RecordSource interface {
	Count(ctx context.Context) (int, error)
	Stream(ctx context.Context, delim string, w io.Writer) error
}

// Pipeline clears the store and re-ingests every note from the record source.
type Pipeline struct {
	store      Store
	embedder   llm.Embedder
	src        RecordSource
	chunker    *CharChunker
	workers    int
	bodyFormat string

	maxChars int
	overlap  int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWindow sets the window size and overlap.
func WithWindow(maxChars, overlap int) Option {
	return func(p *Pipeline) {
		p.maxChars = maxChars
		p.overlap = overlap
	}
}

// WithEmbedWorkers sets the number of concurrent embedding requests.
func WithEmbedWorkers(n int) Option {
	return func(p *Pipeline) {
		p.workers = n
	}
}

// WithBodyFormat sets how note bodies are encoded (BodyHTML or BodyMarkdown).
func WithBodyFormat(format string) Option {
	return func(p *Pipeline) {
		p.bodyFormat = format
	}
}

// NewPipeline creates a new ingestion pipeline. Invalid settings are reported
// as *ConfigError before any I/O happens.
func NewPipeline(store Store, embedder llm.Embedder, src RecordSource, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		store:      store,
		embedder:   embedder,
		src:        src,
		workers:    DefaultEmbedWorkers,
		bodyFormat: BodyHTML,
		maxChars:   DefaultMaxChars,
		overlap:    DefaultOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}

	chunker, err := NewCharChunker(p.maxChars, p.overlap)
	if err != nil {
		return nil, err
	}
	p.chunker = chunker

	if p.workers <= 0 {
		return nil, &ConfigError{Field: "embed_workers", Message: "must be greater than 0"}
	}
	switch p.bodyFormat {
	case BodyHTML, BodyMarkdown:
	default:
		return nil, &ConfigError{Field: "body_format", Message: fmt.Sprintf("unknown format %q", p.bodyFormat)}
	}
	return p, nil
}

// Chunker returns the window chunker.
func (p *Pipeline) Chunker() *CharChunker {
	return p.chunker
}

// getLogger extracts logger from context or returns default logger.
func (p *Pipeline) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContext(ctx)
}

// Run clears every table and ingests all notes streamed by the record source.
// Per-note and per-chunk failures are counted and logged; only a failing
// clear or a failing source process is returned as an error. The summary is
// returned in both cases.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	logger := p.getLogger(ctx).With("run_id", runID)
	ctx = contextutil.WithLogger(ctx, logger)
	started := time.Now()

	counters := newRunCounters()
	summarize := func() Summary {
		s := counters.summary()
		s.RunID = runID
		s.Duration = time.Since(started)
		return s
	}

	logger.InfoContext(ctx, "cleaning existing data from all tables")
	if err := p.store.ClearAll(ctx); err != nil {
		return summarize(), fmt.Errorf("failed to clear store: %w", err)
	}

	total, err := p.src.Count(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to count source notes", "error", err)
		total = -1
	}
	counters.total = total

	delim, err := source.NewDelimiter()
	if err != nil {
		return summarize(), err
	}

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return summarize(), fmt.Errorf("failed to create embedding pool: %w", err)
	}
	defer pool.Release()

	// One consumer: at most one note is finalized at a time.
	queue := make(chan source.Record, queueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for rec := range queue {
			p.finalize(ctx, pool, counters, rec)
		}
	}()

	parser := source.NewParser(delim, func(rec source.Record) {
		counters.notesSeen.Add(1)
		queue <- rec
	})

	logger.InfoContext(ctx, "starting extraction", "total_notes", total)
	streamErr := p.src.Stream(ctx, delim, parser)
	_ = parser.Close()
	close(queue)
	<-done

	counters.notesDiscarded.Store(int64(parser.Discarded()))
	summary := summarize()
	logger.InfoContext(ctx, "ingestion completed",
		"total_notes", total,
		"notes_seen", summary.NotesSeen,
		"notes_saved", summary.NotesSaved,
		"notes_failed", summary.NotesFailed,
		"notes_discarded", summary.NotesDiscarded,
		"chunks_attempted", summary.ChunksAttempted,
		"chunks_saved", summary.ChunksSaved,
		"chunks_skipped", summary.ChunksSkipped,
		"duration", summary.Duration,
	)

	if streamErr != nil {
		return summary, fmt.Errorf("notes extraction failed: %w", streamErr)
	}
	return summary, nil
}

// finalize normalizes, saves, chunks and embeds one note.
func (p *Pipeline) finalize(ctx context.Context, pool *ants.Pool, c *runCounters, rec source.Record) {
	logger := p.getLogger(ctx).With("note_id", rec.ID)
	n := c.notesProcessed.Add(1)
	logger.InfoContext(ctx, "processing note", "n", n, "total", c.total, "title", rec.Title)

	body := rec.Body
	if p.bodyFormat == BodyMarkdown {
		html, err := MarkdownToHTML(body)
		if err != nil {
			logger.WarnContext(ctx, "failed to render markdown body, using raw text", "error", err)
		} else {
			body = html
		}
	}
	text := Normalize(body)

	note := &storage.Note{
		ID:         rec.ID,
		Title:      rec.Title,
		FolderID:   rec.FolderID,
		FolderName: rec.FolderName,
		CreatedAt:  parseSourceTime(rec.Created),
		UpdatedAt:  parseSourceTime(rec.Updated),
	}
	if err := p.store.UpsertNote(ctx, note); err != nil {
		c.notesFailed.Add(1)
		logger.ErrorContext(ctx, "failed to save note", "title", note.Title, "folder", note.FolderName, "error", err)
		return
	}
	c.notesSaved.Add(1)

	windows, err := p.chunker.CreateWindows(text, note.Title)
	if err != nil {
		logger.ErrorContext(ctx, "failed to chunk note", "error", err)
		return
	}
	if len(windows) == 0 {
		logger.DebugContext(ctx, "note has no content")
		return
	}
	c.chunksAttempted.Add(int64(len(windows)))

	vectors := p.embedAll(ctx, pool, windows)

	saved := 0
	for i, window := range windows {
		if vectors[i].err != nil {
			c.skipEmbedding.Add(1)
			logger.WarnContext(ctx, "failed to embed chunk, skipping", "chunk_index", i, "error", vectors[i].err)
			continue
		}
		chunk := &storage.Chunk{
			NoteID:        note.ID,
			NoteTitle:     note.Title,
			FolderName:    note.FolderName,
			NoteUpdatedAt: note.UpdatedAt,
			Index:         i,
			Content:       window,
		}
		if err := p.store.SaveChunk(ctx, chunk, vectors[i].vec); err != nil {
			c.skipStorage.Add(1)
			logger.WarnContext(ctx, "failed to save chunk, skipping", "chunk_index", i, "error", err)
			continue
		}
		c.chunksSaved.Add(1)
		saved++
	}

	logger.InfoContext(ctx, "indexed note", "chunks", len(windows), "saved", saved)
}

type embedResult struct {
	vec []float32
	err error
}

// embedAll embeds windows on the pool and returns results in window order.
func (p *Pipeline) embedAll(ctx context.Context, pool *ants.Pool, windows []string) []embedResult {
	results := make([]embedResult, len(windows))
	var wg sync.WaitGroup
	for i, window := range windows {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			vec, err := p.embedder.Embed(ctx, window)
			results[i] = embedResult{vec: vec, err: err}
		})
		if err != nil {
			wg.Done()
			results[i] = embedResult{err: fmt.Errorf("failed to submit embedding task: %w", err)}
		}
	}
	wg.Wait()
	return results
}

var sourceTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseSourceTime parses the date formats emitted by record sources; dates
// without a zone are local time. Unparseable values yield the zero time.
func parseSourceTime(s string) time.Time {
	for _, layout := range sourceTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
