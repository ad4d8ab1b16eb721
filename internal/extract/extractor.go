// Package extract parses the text layer of a paper into structured
// citations. It locates the references section, segments it into entries,
// and pulls identifiers and metadata out of each entry. Parsing is best
// effort: a field that cannot be confidently extracted is left absent.
package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
	"github.com/panchambanerjee/cite-verify-cli/internal/norm"
)

// ErrSectionNotFound indicates the document has no recognizable
// references heading. Recoverable: callers treat it as an empty list.
var ErrSectionNotFound = errors.New("references section not found")

var (
	sectionHeadRe = regexp.MustCompile(`(?mi)^\s*(?:\d+\.?\s*)?(references|bibliography|works cited|literature)\s*$`)
	sectionEndRe  = regexp.MustCompile(`(?mi)^\s*(appendix|acknowledgements|acknowledgments|supplementary)\b`)

	bracketMarkRe  = regexp.MustCompile(`\[(\d+)\]`)
	numberedMarkRe = regexp.MustCompile(`(?m)^[ \t]*(\d+)[.)][ \t]+`)
	paragraphSepRe = regexp.MustCompile(`\n\s*\n`)
)

// Parse extracts citations from the full text of a paper. A missing
// references section yields an empty list, not an error.
func Parse(text string) []citation.Citation {
	section, err := FindReferencesSection(text)
	if err != nil {
		return nil
	}
	return ParseSection(section)
}

// FindReferencesSection returns the references section of the document,
// delimited by the last references-style heading and the first trailing
// end marker (appendix, acknowledgments, supplementary material). It
// returns ErrSectionNotFound when no heading exists.
func FindReferencesSection(text string) (string, error) {
	// The heading of interest is the one in the trailing portion of the
	// document; any earlier hit is a table of contents or a mention.
	locs := sectionHeadRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return "", ErrSectionNotFound
	}
	start := locs[len(locs)-1][1]
	section := text[start:]

	if end := sectionEndRe.FindStringIndex(section); end != nil {
		section = section[:end[0]]
	}
	return strings.TrimSpace(section), nil
}

// entry is one segmented reference-list entry before field extraction.
type entry struct {
	number string
	text   string
}

// ParseSection segments a references-section blob into entries and
// extracts structured fields from each.
func ParseSection(section string) []citation.Citation {
	entries := splitEntries(section)
	citations := make([]citation.Citation, 0, len(entries))
	for _, e := range entries {
		citations = append(citations, parseEntry(e.text, e.number))
	}
	return citations
}

// splitEntries tries segmentation schemes in priority order: bracketed
// markers [12], numeric labels "12." / "12)", then blank-line separated
// paragraphs. A scheme that finds fewer than two entries loses to the
// next one.
func splitEntries(section string) []entry {
	if entries := splitByMarkers(section, bracketMarkRe); len(entries) >= 2 {
		return entries
	}
	if entries := splitByMarkers(section, numberedMarkRe); len(entries) >= 2 {
		return entries
	}
	return splitByParagraphs(section)
}

// splitByMarkers segments on reference markers matched by re, which must
// capture the reference number in group 1.
func splitByMarkers(section string, re *regexp.Regexp) []entry {
	locs := re.FindAllStringSubmatchIndex(section, -1)
	entries := make([]entry, 0, len(locs))
	for i, loc := range locs {
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		text := strings.TrimSpace(section[loc[1]:end])
		if text == "" {
			continue
		}
		entries = append(entries, entry{
			number: section[loc[2]:loc[3]],
			text:   text,
		})
	}
	return entries
}

func splitByParagraphs(section string) []entry {
	parts := paragraphSepRe.Split(section, -1)
	entries := make([]entry, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entries = append(entries, entry{
			number: strconv.Itoa(len(entries) + 1),
			text:   part,
		})
	}
	return entries
}

// PaperTitle returns the paper's own title from its text layer: the first
// substantial line that is not a running header.
func PaperTitle(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) <= 20 || line == strings.ToUpper(line) {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "abstract") ||
			strings.HasPrefix(lower, "introduction") ||
			strings.HasPrefix(lower, "keywords") {
			continue
		}
		return norm.RepairTitle(line)
	}
	return ""
}
