// Package indexer turns API documents into indexed chunks.
package indexer

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the window length in bytes.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of bytes shared by consecutive windows.
	DefaultChunkOverlap = 200
)

// separators are tried in priority order when looking for a break point.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into bounded, overlapping windows that prefer natural break points.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in bytes).
// A non-positive size falls back to DefaultChunkSize; an overlap that does not leave
// room for progress is clamped to a quarter of the size.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Size returns the configured window length.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.chunkOverlap }

// Split is shorthand for NewChunker(size, overlap).Split(text).
func Split(text string, size, overlap int) []string {
	return NewChunker(size, overlap).Split(text)
}

// Split returns the trimmed, non-empty windows of text. Text that fits in one window is
// returned verbatim as the only element.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.chunkSize {
		return []string{text}
	}
	spans := c.spans(text)
	chunks := make([]string, 0, len(spans))
	for _, s := range spans {
		chunk := strings.TrimSpace(text[s.start:s.end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

type span struct {
	start, end int
}

// spans computes the raw window boundaries. Window starts are strictly increasing.
func (c *Chunker) spans(text string) []span {
	var out []span
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end >= len(text) {
			out = append(out, span{start, len(text)})
			break
		}
		breakPoint := c.breakPoint(text, start, end)
		out = append(out, span{start, breakPoint})

		next := breakPoint - c.chunkOverlap
		if next <= start {
			next = breakPoint
		}
		// Keep windows on rune boundaries.
		for next > start+1 && next < len(text) && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = breakPoint
		}
		start = next
	}
	return out
}

// breakPoint finds where the window [start, end) should end.
func (c *Chunker) breakPoint(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return start + idx + len(sep)
		}
	}
	// Hard cut: back off to a rune boundary without collapsing the window.
	bp := end
	for bp > start+1 && !utf8.RuneStart(text[bp]) {
		bp--
	}
	return bp
}
