package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmptyFileYieldsNoChunks(t *testing.T) {
	assert.Empty(t, Split("", 200))
	assert.Empty(t, Split("\n", 200))
}

func TestSplitExactWindowArithmetic(t *testing.T) {
	// 10 lines, window size 5 -> exactly 2 chunks.
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "line"
	}
	content := strings.Join(lines, "\n")

	chunks := Split(content, 5)
	assert.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 5, chunks[0].EndLine)
	assert.Equal(t, 6, chunks[1].StartLine)
	assert.Equal(t, 10, chunks[1].EndLine)
}

func TestSplitLastWindowShort(t *testing.T) {
	lines := make([]string, 7)
	for i := range lines {
		lines[i] = "line"
	}
	content := strings.Join(lines, "\n")

	chunks := Split(content, 5)
	assert.Len(t, chunks, 2)
	assert.Equal(t, 6, chunks[1].StartLine)
	assert.Equal(t, 7, chunks[1].EndLine)
}

func TestSplitOrdinalsAreSequentialFromZero(t *testing.T) {
	lines := make([]string, 21)
	for i := range lines {
		lines[i] = "x"
	}
	chunks := Split(strings.Join(lines, "\n"), 5)
	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	content := strings.Repeat("a\nb\nc\n", 50)
	a := Split(content, 17)
	b := Split(content, 17)
	assert.Equal(t, a, b)
}

func TestSplitNoOverlapBetweenChunks(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "x"
	}
	chunks := Split(strings.Join(lines, "\n"), 4)
	require := assert.New(t)
	require.Len(chunks, 3)
	for i := 1; i < len(chunks); i++ {
		require.Equal(chunks[i-1].EndLine+1, chunks[i].StartLine)
	}
}
