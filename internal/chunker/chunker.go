// Package chunker splits a file's content into deterministic, fixed-size
// line windows (spec.md §4.4, C4). Unlike boundary-aware chunkers, this
// produces a pure function of (content, window size): the same file always
// yields the same chunk boundaries, which is what lets vector ids stay
// stable across re-indexing runs (see identity.VectorID).
package chunker

import "strings"

// Chunk is one line-bounded slice of a file.
type Chunk struct {
	// Ordinal is the chunk's position within its file, starting at 0.
	Ordinal int
	// StartLine and EndLine are 1-indexed, inclusive.
	StartLine int
	EndLine   int
	// Content is the exact text of lines [StartLine, EndLine], newline-joined.
	Content string
}

// Split divides content into windowSize-line chunks with no overlap. The
// final chunk may be shorter than windowSize. An empty file (zero lines,
// or a single empty line) yields zero chunks (spec.md invariant: "an empty
// file produces no chunks and is still marked complete").
func Split(content string, windowSize int) []Chunk {
	if windowSize <= 0 {
		windowSize = 1
	}

	lines := splitLines(content)
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		return nil
	}

	chunks := make([]Chunk, 0, (len(lines)+windowSize-1)/windowSize)
	ordinal := 0
	for start := 0; start < len(lines); start += windowSize {
		end := start + windowSize
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, Chunk{
			Ordinal:   ordinal,
			StartLine: start + 1,
			EndLine:   end,
			Content:   strings.Join(lines[start:end], "\n"),
		})
		ordinal++
	}
	return chunks
}

// splitLines splits on "\n", discarding the trailing empty line a final
// newline character would otherwise produce, matching how line numbers are
// normally counted in editors: "a\nb\n" is 2 lines, not 3.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
