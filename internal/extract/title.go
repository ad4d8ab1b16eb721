package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/panchambanerjee/cite-verify-cli/internal/norm"
)

// minTitleLen rejects fragments too short to be a paper title.
const minTitleLen = 10

var (
	quotedTitleRe = regexp.MustCompile(`["\x{201C}\x{2018}]([^"\x{201D}\x{2019}]+)["\x{201D}\x{2019}]`)

	// Title between the author block and a venue/year marker:
	// "Authors. Title. In Proceedings ..." / "Authors. Title. arXiv ..."
	authorEndRe = regexp.MustCompile(`(?:et\s+al\.|[A-Za-z][a-z]+)\.\s+([A-Z][^.]+?)\.\s*(?:In\s|CoRR|arXiv|Proceedings|Journal|IEEE|ACM|\d{4})`)

	// ".InInternational" and "In International" variants; PDF extraction
	// drops spaces at line breaks.
	dotInRe     = regexp.MustCompile(`\.In([A-Z])`)
	bareInRe    = regexp.MustCompile(`\bIn([A-Z])`)
	venueWordRe = regexp.MustCompile(`(?i)In\s*(?:International|Proceedings|Conference|ICLR|Advances|Annual|Symposium|Empirical)\s`)

	sentenceSplitRe = regexp.MustCompile(`\.\s+`)
	volumePagesRe   = regexp.MustCompile(`,\s*\d+\(\d+\):\s*\d+`)
	venueStartRe    = regexp.MustCompile(`(?i)^(in\s|proceedings|journal|trans\.|ieee|acm|corr|arxiv)`)

	venuePhraseRe = regexp.MustCompile(`(?i)^(in\s+)?(international|proceedings|conference|advances|annual|symposium|journal|transactions|workshop)\s`)
	venueParenRe  = regexp.MustCompile(`(?i)^[^()]*\s*\((?:iclr|neurips|nips|icml|acl|emnlp|cvpr|eccv|iccv)\)\s*\.?$`)

	trailingJournalRe = regexp.MustCompile(`^(.+?)\.\s+[A-Za-z][^.]*,\s*\d+\(\d+\):\s*\d+`)
)

// extractTitle pulls the paper title out of one citation entry. It tries
// strategies in decreasing order of confidence: a quoted span, the span
// between the author block and a venue marker, the text before a venue
// delimiter, the longest title-shaped sentence segment, and finally the
// last plausible segment before the year.
func extractTitle(text string, year int) string {
	if t := quotedTitle(text); t != "" {
		return t
	}
	if t := titleBeforeVenueMarker(text); t != "" {
		return t
	}
	if t := titleBeforeVenueDelimiter(text); t != "" {
		return t
	}
	if t := titleCommaYear(text, year); t != "" {
		return t
	}
	if t := longestSentenceSegment(text); t != "" {
		return t
	}
	return titleBeforeYear(text, year)
}

func quotedTitle(text string) string {
	m := quotedTitleRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return acceptTitle(m[1])
}

func titleBeforeVenueMarker(text string) string {
	m := authorEndRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return acceptTitle(strings.TrimRight(m[1], "."))
}

// titleBeforeVenueDelimiter handles "Authors. Title. In Venue ..." and
// the space-dropped variants PDF extraction produces.
func titleBeforeVenueDelimiter(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	s = dotInRe.ReplaceAllString(s, ". In $1")
	s = bareInRe.ReplaceAllString(s, "In $1")

	var before string
	if loc := venueWordRe.FindStringIndex(s); loc != nil {
		before = strings.TrimSpace(s[:loc[0]])
	} else if idx := strings.Index(s, ". In "); idx >= 0 {
		before = strings.TrimSpace(s[:idx])
	} else if idx := strings.Index(s, "? In "); idx >= 0 {
		before = strings.TrimSpace(s[:idx]) + "?"
	} else {
		return ""
	}

	// Title may still be merged with "In": "...algorithmsIn"
	if len(before) > 2 && strings.HasSuffix(before, "In") {
		before = strings.TrimSpace(before[:len(before)-2])
	}

	var title string
	if idx := strings.LastIndex(before, ". "); idx >= 0 {
		// Last segment is the title; earlier periods belong to initials
		// or the author block.
		title = strings.TrimRight(strings.TrimSpace(before[idx+2:]), ".")
	} else {
		title = stripLeadingAuthors(before)
	}
	return acceptTitle(stripTrailingJournal(title))
}

// titleCommaYear handles "Authors. Title, 1997." entries.
func titleCommaYear(text string, year int) string {
	if year == 0 {
		return ""
	}
	re := regexp.MustCompile(`\.\s+(.+),\s*` + strconv.Itoa(year) + `\s*\.?\s*$`)
	m := re.FindStringSubmatch(strings.Join(strings.Fields(text), " "))
	if m == nil {
		return ""
	}
	title := strings.Trim(m[1], "., ")
	if idx := strings.Index(title, ". In "); idx >= 0 {
		title = strings.TrimRight(title[:idx], ".?")
	}
	return acceptTitle(stripTrailingJournal(title))
}

// longestSentenceSegment picks the longest interior sentence that looks
// like a title: starts upper-case, reasonable length, not a venue or a
// volume/pages fragment.
func longestSentenceSegment(text string) string {
	segments := sentenceSplitRe.Split(text, -1)
	if len(segments) <= 2 {
		return ""
	}
	best := ""
	for _, seg := range segments[1 : len(segments)-1] {
		seg = strings.TrimSpace(seg)
		if len(seg) <= minTitleLen || len(seg) >= 200 {
			continue
		}
		if seg[0] < 'A' || seg[0] > 'Z' {
			continue
		}
		if volumePagesRe.MatchString(seg) || venueStartRe.MatchString(seg) {
			continue
		}
		if len(seg) > len(best) {
			best = seg
		}
	}
	return acceptTitle(stripTrailingJournal(best))
}

// titleBeforeYear scans segments before the year, last first, for a
// title-shaped span. The venue usually sits last, the title before it.
func titleBeforeYear(text string, year int) string {
	if year == 0 {
		return ""
	}
	pos := strings.Index(text, strconv.Itoa(year))
	if pos <= 0 {
		return ""
	}
	segments := sentenceSplitRe.Split(text[:pos], -1)
	for i := len(segments) - 1; i >= 1; i-- {
		seg := strings.Trim(segments[i], "., ")
		if idx := strings.Index(seg, ". In "); idx >= 0 {
			seg = strings.TrimRight(seg[:idx], ".?")
		}
		if t := acceptTitle(stripTrailingJournal(seg)); t != "" {
			return t
		}
	}
	return ""
}

// acceptTitle validates and repairs a candidate title, returning "" when
// it is too short or clearly a venue name.
func acceptTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) <= minTitleLen || looksLikeVenue(title) {
		return ""
	}
	return norm.RepairTitle(title)
}

// looksLikeVenue reports whether a string is clearly a venue name rather
// than a paper title.
func looksLikeVenue(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 15 {
		return false
	}
	return venuePhraseRe.MatchString(s) || venueParenRe.MatchString(s)
}

// stripTrailingJournal removes a trailing ". Journal, vol(issue):pages"
// fragment and a leading "In " left over from venue splitting.
func stripTrailingJournal(title string) string {
	title = strings.TrimSpace(title)
	if len(title) > 3 && strings.EqualFold(title[:3], "in ") {
		title = strings.TrimSpace(title[3:])
	}
	if m := trailingJournalRe.FindStringSubmatch(title); m != nil {
		return strings.TrimRight(strings.TrimSpace(m[1]), ".")
	}
	return title
}

// stripLeadingAuthors handles "Author1 and Author2 Title" with no period
// after the author block: after the last " and ", a two-word name is
// assumed and the remainder is the title.
func stripLeadingAuthors(text string) string {
	idx := strings.Index(text, " and ")
	if idx < 0 {
		return text
	}
	remainder := strings.TrimSpace(text[idx+len(" and "):])
	words := strings.Fields(remainder)
	if len(words) >= 3 && isUpperStart(words[0]) && isUpperStart(words[1]) {
		return strings.Join(words[2:], " ")
	}
	return remainder
}

func isUpperStart(w string) bool {
	return w != "" && w[0] >= 'A' && w[0] <= 'Z'
}
