package ingestion

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerSplitsOnParagraphs(t *testing.T) {
	c := NewChunker(100, 20, 10)

	text := "First paragraph about disclosure norms.\n\n" +
		"Second paragraph about insider trading.\n\n" +
		"Third paragraph about mutual funds."

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	// Every chunk fits the budget and paragraphs were not cut mid-word
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100+25)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestChunkerSingleShortText(t *testing.T) {
	c := NewChunker(1000, 200, 100)

	chunks := c.Chunk("A single short circular paragraph.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A single short circular paragraph.", chunks[0])
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(1000, 200, 100)

	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("\n\n\n\n"))
}

func TestChunkerOversizedParagraph(t *testing.T) {
	c := NewChunker(100, 20, 10)

	para := strings.Repeat("regulation clause ", 50) // ~900 chars, no blank lines
	chunks := c.Chunk(para)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}

	// Nothing was dropped: all words survive in order
	joined := strings.Join(chunks, " ")
	assert.Contains(t, joined, "regulation clause")
}

func TestChunkerOversizedParagraphKeepsTextAfterWordCut(t *testing.T) {
	c := NewChunker(100, 20, 10)

	// A lone space early in the window pulls the word-aligned cut far
	// behind the window edge; everything after it must still come through
	text := strings.Repeat("a", 30) + " " + "CLAUSE42" + strings.Repeat("b", 140)

	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " ")
	assert.Contains(t, joined, "CLAUSE42")
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
}

func TestChunkerOversizedParagraphLosesNoWords(t *testing.T) {
	c := NewChunker(40, 0, 5)

	words := make([]string, 60)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	text := strings.Join(words, " ")

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	// With zero overlap the chunks partition the text exactly
	assert.Equal(t, words, strings.Fields(strings.Join(chunks, " ")))
}

func TestChunkerOverlapCarriesContext(t *testing.T) {
	c := NewChunker(80, 30, 10)

	text := "Alpha beta gamma delta epsilon zeta eta theta.\n\n" +
		"Iota kappa lambda mu nu xi omicron pi rho sigma.\n\n" +
		"Tau upsilon phi chi psi omega one two three four."

	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	// The second chunk starts with a tail of the first
	firstWords := strings.Fields(chunks[0])
	lastWord := firstWords[len(firstWords)-1]
	assert.Contains(t, chunks[1], strings.TrimSuffix(lastWord, "."))
}

func TestChunkerMergesTinyTrailingChunk(t *testing.T) {
	c := NewChunker(100, 0, 50)

	text := strings.Repeat("word ", 20) + "\n\nend."
	chunks := c.Chunk(text)

	// The 4-char trailer is folded into the previous chunk
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasSuffix(chunks[0], "end."))
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "Line  one\t\there\n   Line two   \n\n\nLine three"
	out := normalizeWhitespace(in)

	assert.Equal(t, "Line one here\nLine two\n\n\nLine three", out)
}
