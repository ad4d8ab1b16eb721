package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

// Report is the top-level structure of JSON and markdown output.
type Report struct {
	PaperTitle string                      `json:"paper_title,omitempty"`
	Citations  []citation.VerifiedCitation `json:"citations"`
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, paperTitle string, citations []citation.VerifiedCitation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Report{PaperTitle: paperTitle, Citations: citations}); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
