package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

const (
	// ChunkerVersion identifies the windowing algorithm.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "char-v1"
	// BytesPerToken approximates token counts from window length.
	BytesPerToken = 4.0
)

// CoverageStore is the read side of the store needed for coverage statistics.
type CoverageStore interface {
	CountNotes(ctx context.Context) (int, error)
	CountNotesWithoutChunks(ctx context.Context) (int, error)
	ChunkLengths(ctx context.Context) ([]int, error)
}

// CoverageStats describes how much of the ingested notes ended up searchable.
type CoverageStats struct {
	// Notes is the number of stored notes.
	Notes int `json:"notes"`
	// NotesWithoutChunks counts notes with no stored window, e.g. empty bodies
	// or notes whose every embedding failed.
	NotesWithoutChunks int `json:"notes_without_chunks"`
	// Chunks is the number of stored windows.
	Chunks int `json:"chunks"`
	// ChunkTokenStats contains estimated token counts per window.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash of chunker version, embedding model and window parameters.
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// GetCoverageStats computes coverage statistics from the current store contents.
func GetCoverageStats(ctx context.Context, store CoverageStore, chunker *CharChunker, embeddingModelName string) (*CoverageStats, error) {
	stats := &CoverageStats{ChunkerVersion: ChunkerVersion}

	notes, err := store.CountNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}
	stats.Notes = notes

	without, err := store.CountNotesWithoutChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes without chunks: %w", err)
	}
	stats.NotesWithoutChunks = without

	lengths, err := store.ChunkLengths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk lengths: %w", err)
	}
	stats.Chunks = len(lengths)

	tokenCounts := make([]int, 0, len(lengths))
	for _, n := range lengths {
		tokens := int(math.Round(float64(n) / BytesPerToken))
		if tokens < 1 {
			tokens = 1
		}
		tokenCounts = append(tokenCounts, tokens)
	}
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	stats.IndexVersion = IndexVersion(chunker, embeddingModelName)

	return stats, nil
}

// IndexVersion returns a short hash identifying an index build.
func IndexVersion(chunker *CharChunker, embeddingModelName string) string {
	input := fmt.Sprintf("%s|%s|maxChars=%d|overlap=%d",
		ChunkerVersion, embeddingModelName, chunker.MaxChars(), chunker.Overlap())
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
