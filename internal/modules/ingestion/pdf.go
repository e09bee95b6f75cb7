package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// ExtractPDFText extracts the plain text of a PDF document.
// The byte stream must carry the %PDF header; anything else is rejected
// before the parser sees it.
func ExtractPDFText(data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", fmt.Errorf("not a PDF document")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	cleaned := normalizeWhitespace(string(text))
	if cleaned == "" {
		return "", fmt.Errorf("PDF contains no extractable text")
	}
	return cleaned, nil
}

// normalizeWhitespace collapses runs of spaces and trims each line while
// preserving paragraph breaks the chunker splits on
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceRe.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
