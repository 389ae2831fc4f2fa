package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks notechat/internal/rag Engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"notechat/internal/contextutil"
	"notechat/internal/llm"
	"notechat/internal/storage"
)

const (
	// DefaultK is the number of chunks returned when a request leaves K unset.
	DefaultK = 5
	// MaxK bounds the number of chunks a request may ask for.
	MaxK = 20
	// DefaultMaxDistance is the default L2 distance threshold.
	DefaultMaxDistance = 19.0
)

// ErrEmptyQuery is returned when the query text is blank.
var ErrEmptyQuery = errors.New("query text is required")

// Searcher finds the chunks nearest to a vector.
type Searcher interface {
	FindNearest(ctx context.Context, q storage.NearestQuery) ([]storage.Neighbor, error)
}

// Engine answers similarity queries over the stored chunks.
type Engine interface {
	// Query embeds the request text and returns the nearest chunks.
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	embedder    llm.Embedder
	searcher    Searcher
	defaultK    int
	maxDistance float64
}

// NewEngine creates a new retrieval engine. Non-positive defaults fall back to
// DefaultK and DefaultMaxDistance.
func NewEngine(embedder llm.Embedder, searcher Searcher, defaultK int, maxDistance float64) Engine {
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return &ragEngine{
		embedder:    embedder,
		searcher:    searcher,
		defaultK:    min(defaultK, MaxK),
		maxDistance: maxDistance,
	}
}

// getLogger extracts logger from context or returns default logger.
func (e *ragEngine) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContext(ctx)
}

// clampK applies the default and the upper bound to a requested k.
func (e *ragEngine) clampK(k int) int {
	if k <= 0 {
		return e.defaultK
	}
	return min(k, MaxK)
}

// Query embeds the request text and returns the nearest chunks below the
// distance threshold, nearest first.
func (e *ragEngine) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	logger := e.getLogger(ctx)

	if req.Text == "" {
		return QueryResponse{}, ErrEmptyQuery
	}
	k := e.clampK(req.K)
	maxDistance := req.MaxDistance
	if maxDistance <= 0 {
		maxDistance = e.maxDistance
	}

	logger.InfoContext(ctx, "query started",
		"text_length", len(req.Text),
		"folder", req.Folder,
		"k", k,
		"max_distance", maxDistance,
	)

	vec, err := e.embedder.Embed(ctx, req.Text)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return QueryResponse{}, fmt.Errorf("failed to embed query: %w", err)
	}

	neighbors, err := e.searcher.FindNearest(ctx, storage.NearestQuery{
		Vector:      vec,
		K:           k,
		MaxDistance: maxDistance,
		Folder:      req.Folder,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search chunks", "error", err)
		return QueryResponse{}, fmt.Errorf("failed to search chunks: %w", err)
	}

	results := make([]Result, 0, len(neighbors))
	for i, n := range neighbors {
		results = append(results, Result{
			ChunkID:       n.ID,
			NoteID:        n.NoteID,
			NoteTitle:     n.NoteTitle,
			FolderName:    n.FolderName,
			NoteUpdatedAt: n.NoteUpdatedAt,
			ChunkIndex:    n.Index,
			Content:       n.Content,
			Distance:      n.Distance,
			Rank:          i + 1,
		})

		preview := previewText(n.Content, 100)
		logger.DebugContext(ctx, "retrieved chunk",
			"rank", i+1,
			"distance", n.Distance,
			"note_title", n.NoteTitle,
			"chunk_index", n.Index,
			"text_preview", preview,
		)
	}

	logger.InfoContext(ctx, "query completed", "results", len(results))
	return QueryResponse{
		Results:     results,
		K:           k,
		MaxDistance: maxDistance,
	}, nil
}

// previewText shortens s to at most limit bytes without splitting a rune.
func previewText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
