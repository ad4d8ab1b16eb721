package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

// latexSpecials are characters that need escaping in BibTeX field values.
var latexSpecials = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
)

var citekeyCleanRe = regexp.MustCompile(`[^a-z0-9]`)

// ToBibTeX renders one verified citation as a BibTeX entry. Fields come
// from the accepted match when present, falling back to the parsed
// citation.
func ToBibTeX(vc citation.VerifiedCitation) string {
	title, authors, year, venue, doi := vc.Title, vc.Authors, vc.Year, vc.Venue, vc.DOI
	if vc.Verification.Verified() {
		m := vc.Verification.Match
		if m.Title != "" {
			title = m.Title
		}
		if len(m.Authors) > 0 {
			authors = m.Authors
		}
		if m.Year != 0 {
			year = m.Year
		}
		if m.Venue != "" {
			venue = m.Venue
		}
		if m.DOI != "" {
			doi = m.DOI
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType(venue), citekey(authors, year, vc.Number)))
	if len(authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", latexSpecials.Replace(strings.Join(authors, " and "))))
	}
	if title != "" {
		b.WriteString(fmt.Sprintf("  title = {%s},\n", latexSpecials.Replace(title)))
	}
	if venue != "" {
		field := "journal"
		if entryType(venue) == "inproceedings" {
			field = "booktitle"
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", field, latexSpecials.Replace(venue)))
	}
	if year != 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", year))
	}
	if doi != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", doi))
	}
	if vc.ArxivID != "" {
		b.WriteString(fmt.Sprintf("  eprint = {%s},\n", vc.ArxivID))
	}
	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList renders all citations as a BibTeX bibliography.
func ToBibTeXList(citations []citation.VerifiedCitation) string {
	entries := make([]string, 0, len(citations))
	for _, vc := range citations {
		entries = append(entries, ToBibTeX(vc))
	}
	return strings.Join(entries, "\n")
}

func entryType(venue string) string {
	v := strings.ToLower(venue)
	if strings.Contains(v, "proceedings") ||
		strings.Contains(v, "conference") ||
		strings.Contains(v, "workshop") ||
		strings.Contains(v, "symposium") {
		return "inproceedings"
	}
	return "article"
}

// citekey builds a "lastname2017" style key, falling back to the
// reference number when no author or year is known.
func citekey(authors []string, year int, number string) string {
	name := "ref" + number
	if len(authors) > 0 {
		fields := strings.Fields(authors[0])
		if len(fields) > 0 {
			last := citekeyCleanRe.ReplaceAllString(strings.ToLower(fields[len(fields)-1]), "")
			if last != "" {
				name = last
			}
		}
	}
	if year != 0 {
		return fmt.Sprintf("%s%d", name, year)
	}
	return name
}
