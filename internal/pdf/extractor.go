package pdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz" // Lightweight PDF renderer
)

// ExtractText extracts the plain text of every page, concatenated with newlines.
func ExtractText(pdfData []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	var sb strings.Builder

	for i := 0; i < pageCount; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", fmt.Errorf("PDF contains no extractable text (%d pages)", pageCount)
	}
	return result, nil
}
