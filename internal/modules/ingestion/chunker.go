package ingestion

import (
	"regexp"
	"strings"
)

// Chunker splits extracted text into overlapping chunks along paragraph
// boundaries. Regulatory circulars are paragraph-structured, so splitting
// there keeps clauses intact far more often than fixed windows would.
type Chunker struct {
	maxChunkSize int
	overlap      int
	minChunkSize int
	paragraphRe  *regexp.Regexp
}

// NewChunker creates a chunker. Sizes are in characters.
func NewChunker(maxChunkSize, overlap, minChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 || overlap >= maxChunkSize {
		overlap = maxChunkSize / 5
	}
	if minChunkSize <= 0 || minChunkSize > maxChunkSize {
		minChunkSize = 100
	}
	return &Chunker{
		maxChunkSize: maxChunkSize,
		overlap:      overlap,
		minChunkSize: minChunkSize,
		paragraphRe:  regexp.MustCompile(`\n\n+`),
	}
}

// Chunk splits text into chunks of at most maxChunkSize characters,
// carrying the tail of each chunk into the next as overlap
func (c *Chunker) Chunk(text string) []string {
	paragraphs := c.paragraphRe.Split(text, -1)

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Paragraphs longer than a whole chunk get window-split on their own
		if len(para) > c.maxChunkSize {
			flush()
			for _, piece := range c.splitLong(para) {
				chunks = append(chunks, piece)
			}
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > c.maxChunkSize {
			tail := overlapTail(current.String(), c.overlap)
			flush()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	// Merge a trailing fragment into its predecessor instead of emitting
	// a chunk too small to embed usefully
	if n := len(chunks); n > 1 && len(chunks[n-1]) < c.minChunkSize {
		chunks[n-2] = chunks[n-2] + "\n\n" + chunks[n-1]
		chunks = chunks[:n-1]
	}

	return chunks
}

// splitLong cuts an oversized paragraph into windows with overlap,
// preferring to break at a space near the window edge. Each window
// resumes from the previous cut, never a fixed step, so a word-aligned
// cut short of the window edge cannot drop the text behind it.
func (c *Chunker) splitLong(para string) []string {
	var pieces []string

	start := 0
	for start < len(para) {
		end := start + c.maxChunkSize
		if end >= len(para) {
			pieces = append(pieces, strings.TrimSpace(para[start:]))
			break
		}
		// Back up to the nearest space so words stay whole
		cut := end
		for cut > start+c.minChunkSize && para[cut-1] != ' ' {
			cut--
		}
		if cut == start+c.minChunkSize {
			cut = end
		}
		pieces = append(pieces, strings.TrimSpace(para[start:cut]))

		next := cut - c.overlap
		if next <= start {
			// Overlap would rewind past material already emitted
			next = cut
		}
		start = next
	}
	return pieces
}

// overlapTail returns the last n characters of s, aligned to a word start
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return ""
	}
	tail := s[len(s)-n:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx+1 < len(tail) {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}
