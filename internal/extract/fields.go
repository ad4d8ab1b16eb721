package extract

import (
	"regexp"
	"strings"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
	"github.com/panchambanerjee/cite-verify-cli/internal/norm"
)

var (
	leadingMarkRe = regexp.MustCompile(`^\s*\[\d+\]\s*`)
	doiRe         = regexp.MustCompile(`10\.\d{4,9}/[^\s)>\]]+`)
	urlRe         = regexp.MustCompile(`https?://[^\s)]+`)

	// arXiv identifier patterns, tried in order. PDF extraction and
	// citation styles produce several spellings of the same identifier.
	arxivPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)arXiv[:\s]+(\d{4}\.\d{4,5})(?:v\d+)?`),
		regexp.MustCompile(`(?i)arXiv\s+preprint\s+(\d{4}\.\d{4,5})`),
		regexp.MustCompile(`(?i)arxiv\.org/abs/(\d{4}\.\d{4,5})`),
		regexp.MustCompile(`(?i)abs/(\d{4}\.\d{4,5})`),
		regexp.MustCompile(`(?i)arXiv[:\s]+([a-z-]+(?:\.[A-Za-z]{2})?/\d{7})`),
	}

	venueInRe      = regexp.MustCompile(`(?i)\bIn[:\s]+([^,.]{4,80})`)
	venueJournalRe = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Journal|Proceedings|Transactions)`)
)

// parseEntry extracts structured fields from one reference-list entry.
// A zero-field entry is still emitted with its raw text so the caller can
// surface it as unverifiable.
func parseEntry(text, number string) citation.Citation {
	text = strings.TrimSpace(leadingMarkRe.ReplaceAllString(text, ""))
	c := citation.Citation{Number: number, RawText: text}
	if text == "" {
		return c
	}

	var identifierSpans [][2]int

	if loc := doiRe.FindStringIndex(text); loc != nil {
		if doi, err := norm.NormalizeDOI(text[loc[0]:loc[1]]); err == nil {
			c.DOI = doi
			identifierSpans = append(identifierSpans, [2]int{loc[0], loc[1]})
		}
	}

	if id, span := findArxivID(text); id != "" {
		c.ArxivID = id
		identifierSpans = append(identifierSpans, span)
	}

	if loc := urlRe.FindStringIndex(text); loc != nil {
		c.URL = strings.TrimRight(text[loc[0]:loc[1]], ".,)")
		identifierSpans = append(identifierSpans, [2]int{loc[0], loc[1]})
	}

	c.Year = norm.ExtractYear(text, identifierSpans)
	c.Title = extractTitle(text, c.Year)
	c.Authors = extractAuthors(text)
	c.Venue = extractVenue(text)
	return c
}

// findArxivID returns the normalized arXiv ID in text and the span it was
// matched at, or "" when none is present.
func findArxivID(text string) (string, [2]int) {
	for _, re := range arxivPatterns {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		raw := text[m[2]:m[3]]
		id, err := norm.NormalizeArxivID(raw)
		if err != nil {
			continue
		}
		return id, [2]int{m[0], m[1]}
	}
	return "", [2]int{}
}

func extractVenue(text string) string {
	if m := venueInRe.FindStringSubmatch(text); m != nil {
		return strings.Trim(m[1], ".,; ")
	}
	if m := venueJournalRe.FindStringSubmatch(text); m != nil {
		return strings.Trim(m[0], ".,; ")
	}
	return ""
}

var (
	authorBlockRe = regexp.MustCompile(`^([^.]+(?:\.\s*[A-Z]\.)*[^.]*?)\.\s*[A-Z]`)
	andJoinRe     = regexp.MustCompile(`(?i),\s+and\s+`)
	authorSplitRe = regexp.MustCompile(`\s+and\s+|,\s+`)
)

// maxAuthors caps the author list; beyond this the split has almost
// certainly run into the title.
const maxAuthors = 10

// extractAuthors pulls the leading author-name block: comma/and separated
// capitalized names up to the first period that is not part of an
// initial.
func extractAuthors(text string) []string {
	var block string
	if m := authorBlockRe.FindStringSubmatch(text); m != nil {
		block = m[1]
	} else if idx := strings.Index(text, "."); idx > 0 {
		block = text[:idx]
	} else {
		return nil
	}

	block = andJoinRe.ReplaceAllString(block, ", ")
	parts := authorSplitRe.Split(block, -1)

	var authors []string
	for _, part := range parts {
		name := strings.Trim(part, " .,")
		if len(name) <= 2 {
			continue
		}
		lower := strings.ToLower(name)
		if lower == "et al" || lower == "others" {
			continue
		}
		authors = append(authors, name)
		if len(authors) == maxAuthors {
			break
		}
	}
	return authors
}
