package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	ledongthuc "github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of every page.
func ExtractText(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

// MissingLines reports which expected lines cannot be found in the extracted text.
// Whitespace is ignored on both sides because PDF text runs rarely keep it.
func MissingLines(extracted string, expected []string) []string {
	haystack := squash(extracted)
	var missing []string
	for _, line := range expected {
		needle := squash(line)
		if needle == "" {
			continue
		}
		if !strings.Contains(haystack, needle) {
			missing = append(missing, line)
		}
	}
	return missing
}

func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
