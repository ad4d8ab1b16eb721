// Package pdf extracts the text layer from PDF files and validates
// downloaded PDFs. It does no citation parsing itself.
package pdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts plain text from the first maxPages pages of a PDF
// file. maxPages <= 0 extracts every page. Pages whose text layer cannot
// be decoded are skipped.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	return pagesText(r, maxPages), nil
}

// ExtractTextReader extracts plain text from a PDF provided as a reader.
func ExtractTextReader(r io.ReaderAt, size int64, maxPages int) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}
	return pagesText(pdfReader, maxPages), nil
}

func pagesText(r *pdf.Reader, maxPages int) string {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String()
}

// Validate reports whether the file at path parses as a PDF. Download
// sources sometimes return an HTML error page with a 200 status; this
// catches those.
func Validate(path string) error {
	f, _, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("not a valid PDF: %w", err)
	}
	return f.Close()
}
