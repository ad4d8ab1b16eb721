// Package format renders verification reports: a summary block, a
// rendered table, JSON, markdown, and BibTeX export.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

// titleColumnWidth truncates citation titles in table output.
const titleColumnWidth = 48

// WriteSummary writes the run's summary statistics.
func WriteSummary(w io.Writer, citations []citation.VerifiedCitation) {
	fmt.Fprintf(w, "\nSUMMARY\n%s\n", strings.Repeat("-", 60))
	total := len(citations)
	if total == 0 {
		fmt.Fprintln(w, "No citations to display.")
		return
	}

	var verified, unverified, withPDF int
	var qualitySum int
	for _, c := range citations {
		if c.Verification.Verified() {
			verified++
		} else {
			unverified++
		}
		if c.Download != nil && c.Download.Success {
			withPDF++
		}
		if c.Quality != nil {
			qualitySum += c.Quality.Total
		}
	}

	fmt.Fprintf(w, "Total citations:   %d\n", total)
	fmt.Fprintf(w, "Verified:          %d (%d%%)\n", verified, verified*100/total)
	fmt.Fprintf(w, "Unverified:        %d (%d%%)\n", unverified, unverified*100/total)
	fmt.Fprintf(w, "Overall quality:   %d/100\n", qualitySum/total)
	fmt.Fprintf(w, "PDFs available:    %d/%d\n", withPDF, total)
}

// WriteTable writes the per-citation report as a rendered table.
func WriteTable(w io.Writer, citations []citation.VerifiedCitation) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Citation", "Status", "Sim", "Score", "PDF"})

	for _, c := range citations {
		status := "✗ unverified"
		sim := ""
		if c.Verification.Verified() {
			status = "✓ " + string(c.Verification.Method)
			sim = fmt.Sprintf("%.2f", c.Verification.Similarity)
		}

		score := ""
		if c.Quality != nil {
			score = fmt.Sprintf("%d", c.Quality.Total)
		}
		pdfMark := ""
		if c.Download != nil {
			pdfMark = "✗"
			if c.Download.Success {
				pdfMark = "✓"
			}
		}

		tw.AppendRow(table.Row{
			c.Number,
			text.Trim(displayTitle(c), titleColumnWidth),
			status,
			sim,
			score,
			pdfMark,
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.Render()
}

// displayTitle prefers the verified title over the parsed one, with the
// raw text as a last resort.
func displayTitle(c citation.VerifiedCitation) string {
	if c.Verification.Verified() && c.Verification.Match.Title != "" {
		return c.Verification.Match.Title
	}
	if c.Title != "" {
		return c.Title
	}
	return c.RawText
}
