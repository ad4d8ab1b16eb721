package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

// WriteMarkdown writes the report as a markdown document with a summary
// section and a per-citation table.
func WriteMarkdown(w io.Writer, paperTitle string, citations []citation.VerifiedCitation) {
	if paperTitle != "" {
		fmt.Fprintf(w, "# Citation Report: %s\n\n", paperTitle)
	} else {
		fmt.Fprint(w, "# Citation Report\n\n")
	}

	total := len(citations)
	if total == 0 {
		fmt.Fprintln(w, "No citations found.")
		return
	}

	var verified int
	for _, c := range citations {
		if c.Verification.Verified() {
			verified++
		}
	}
	fmt.Fprintf(w, "**%d citations, %d verified (%d%%)**\n\n", total, verified, verified*100/total)

	fmt.Fprintln(w, "| # | Citation | Status | Similarity | Score |")
	fmt.Fprintln(w, "|---|----------|--------|------------|-------|")
	for _, c := range citations {
		status := "unverified"
		sim := "-"
		if c.Verification.Verified() {
			status = "verified (" + string(c.Verification.Method) + ")"
			sim = fmt.Sprintf("%.2f", c.Verification.Similarity)
		}
		score := "-"
		if c.Quality != nil {
			score = fmt.Sprintf("%d/100", c.Quality.Total)
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			c.Number, escapeMarkdown(displayTitle(c)), status, sim, score)
	}

	var unverified []citation.VerifiedCitation
	for _, c := range citations {
		if !c.Verification.Verified() {
			unverified = append(unverified, c)
		}
	}
	if len(unverified) > 0 {
		fmt.Fprint(w, "\n## Unverified Citations\n\n")
		for _, c := range unverified {
			fmt.Fprintf(w, "- **[%s]** %s\n", c.Number, escapeMarkdown(c.RawText))
			if c.Verification != nil {
				for _, a := range c.Verification.Attempts {
					fmt.Fprintf(w, "  - %s: %s\n", a.Source, a.Result)
				}
			}
		}
	}
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
