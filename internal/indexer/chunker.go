package indexer

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChars is the default window size including the title header.
	DefaultMaxChars = 500
	// DefaultOverlap is the default number of bytes repeated between windows.
	DefaultOverlap = 50
)

// CharChunker splits normalized text into overlapping windows that break on spaces.
// Sizes are counted in bytes of the UTF-8 text.
type CharChunker struct {
	maxChars int
	overlap  int
}

// NewCharChunker creates a chunker producing windows of at most maxChars bytes,
// header included, with overlap bytes repeated between consecutive windows.
func NewCharChunker(maxChars, overlap int) (*CharChunker, error) {
	if maxChars <= 0 {
		return nil, &ConfigError{Field: "max_chars", Message: "must be greater than 0"}
	}
	if overlap < 0 {
		return nil, &ConfigError{Field: "overlap", Message: "must not be negative"}
	}
	if overlap >= maxChars {
		return nil, &ConfigError{Field: "overlap", Message: "must be smaller than max_chars"}
	}
	if len(windowHeader("")) >= maxChars {
		return nil, &ConfigError{Field: "max_chars", Message: "too small to hold the title header"}
	}
	return &CharChunker{maxChars: maxChars, overlap: overlap}, nil
}

// MaxChars returns the configured window size.
func (c *CharChunker) MaxChars() int { return c.maxChars }

// Overlap returns the configured overlap.
func (c *CharChunker) Overlap() int { return c.overlap }

func windowHeader(title string) string {
	return "Title: " + title + "\n\nContent: "
}

// CreateWindows splits text into windows prefixed with the title header.
// A window only exceeds maxChars when a single word is longer than the budget
// left after the header. Empty text yields no windows.
func (c *CharChunker) CreateWindows(text, title string) ([]string, error) {
	header := windowHeader(title)
	budget := c.maxChars - len(header)
	if budget <= 0 {
		return nil, &ConfigError{Field: "max_chars", Message: "too small to hold the title header for " + title}
	}

	windows := []string{}
	pos := 0
	for pos < len(text) {
		end := pos + budget
		if end >= len(text) {
			windows = append(windows, header+text[pos:])
			break
		}
		for end > pos && !utf8.RuneStart(text[end]) {
			end--
		}

		// Last space at or before end, else the first one after it.
		brk := strings.LastIndexByte(text[:end+1], ' ')
		if brk <= pos {
			next := strings.IndexByte(text[end:], ' ')
			if next < 0 {
				windows = append(windows, header+text[pos:])
				break
			}
			brk = end + next
		}
		windows = append(windows, header+text[pos:brk])

		next := brk + 1
		if c.overlap > 0 {
			next = max(next-c.overlap, 0)
			for next > 0 && !utf8.RuneStart(text[next]) {
				next--
			}
		}
		if next <= pos {
			next = brk + 1
		}
		pos = next
	}
	return windows, nil
}
