// Package chunker splits extracted document text into overlapping
// character windows suitable for embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/verdana-ai/verdana/internal/config"
)

// Default window geometry. 800/300 keeps each chunk well under the
// embedding model's input limit while preserving cross-chunk context.
const (
	DefaultSize     = 800
	DefaultOverlap  = 300
	DefaultLookback = 200
)

// Chunker slides a fixed-size window over normalized text, preferring to
// cut at sentence boundaries near the window end.
type Chunker struct {
	size     int
	overlap  int
	lookback int
}

// New creates a Chunker. Returns config.ErrBadChunkConfig when
// overlap >= size, which would otherwise produce a non-advancing loop.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= size {
		return nil, config.ErrBadChunkConfig
	}
	return &Chunker{size: size, overlap: overlap, lookback: DefaultLookback}, nil
}

// Size returns the configured window size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the ordered chunk texts for the given document text.
// Whitespace is normalized first; empty or whitespace-only input yields
// zero chunks.
func (c *Chunker) Split(text string) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		// Prefer a sentence boundary in the tail of the window, but only
		// when it lands past the window midpoint.
		if end < len(runes) {
			if cut := c.sentenceCut(runes, start, end); cut > 0 {
				end = cut
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}

		// Overlap is measured back from the cut, so coverage has no gaps
		// even when the boundary search shortened the window.
		next := end - c.overlap
		if next <= start {
			next = start + c.size - c.overlap
		}
		start = next
	}

	return chunks
}

// sentenceCut searches backward from end for the rightmost sentence
// terminator within the lookback region. Returns the cut position one
// past the terminator, or 0 when no acceptable boundary exists.
func (c *Chunker) sentenceCut(runes []rune, start, end int) int {
	limit := end - c.lookback
	mid := start + c.size/2
	if limit < mid {
		limit = mid
	}
	for i := end - 1; i >= limit; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return 0
}

// Normalize collapses all runs of whitespace to single spaces and trims
// the result, so chunk offsets are stable across re-ingests of the same
// content regardless of source formatting.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
