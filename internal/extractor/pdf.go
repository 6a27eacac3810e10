// Package extractor pulls raw text out of PDF statements. Extraction
// quality varies wildly with the producing software, so several
// methods are tried and the first one yielding readable text wins.
package extractor

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Words expected in any card or account statement. Extracted text
// containing none of these is treated as garbage from a custom-font
// or image-based document.
var statementWords = []string{
	"statement", "transaction", "balance", "card", "account",
	"payment", "subtotal", "total", "date", "amount", "credit",
}

// ExtractText reads a PDF file and returns its text, pages joined by
// blank lines. It returns an error when no readable text could be
// recovered, which usually means a scanned or image-based document.
func ExtractText(filePath string) (string, error) {
	pages, err := extractPages(filePath)
	if err != nil {
		return "", fmt.Errorf("pdf text extraction failed: %w", err)
	}
	if !readable(pages) {
		return "", fmt.Errorf("no readable text in %s: the document may be scanned or use custom font encodings", filePath)
	}
	return strings.Join(pages, "\n\n"), nil
}

func extractPages(filePath string) (pages []string, err error) {
	// The library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if r.NumPage() == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	// Row-based extraction preserves the line structure the statement
	// grammar depends on.
	pages = extractByRow(r)
	if readable(pages) {
		return pages, nil
	}

	// Fallback: whole-document plain text.
	if text := extractPlainText(r); text != "" {
		return []string{text}, nil
	}
	return pages, nil
}

func extractByRow(r *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readable requires enough text, a high ASCII ratio, and at least one
// statement vocabulary word. Identity-encoded fonts decode into
// accented garbage that passes looser unicode checks.
func readable(pages []string) bool {
	total, ascii := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"$%&@#!?+=*`, r) {
				ascii++
			}
		}
	}
	if total <= 50 || float64(ascii)/float64(total) <= 0.6 {
		return false
	}

	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}
