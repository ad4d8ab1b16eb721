package norm

import (
	"regexp"
	"strconv"
	"time"
)

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// MinYear is the earliest publication year accepted by year extraction.
const MinYear = 1900

// ExtractYear returns the first plausible 4-digit publication year in
// text, or 0 when none is found. Spans listed in exclude (identifier
// substrings such as DOIs and arXiv IDs) are skipped, as are tokens that
// look like the start of a page range ("15(1):1929-1958").
func ExtractYear(text string, exclude [][2]int) int {
	maxYear := time.Now().Year() + 1
	for _, loc := range yearRe.FindAllStringIndex(text, -1) {
		if overlaps(loc[0], loc[1], exclude) {
			continue
		}
		year, err := strconv.Atoi(text[loc[0]:loc[1]])
		if err != nil || year < MinYear || year > maxYear {
			continue
		}
		if looksLikePageRange(text, loc[0], loc[1]) {
			continue
		}
		return year
	}
	return 0
}

func overlaps(start, end int, spans [][2]int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}

var (
	pageBeforeRe = regexp.MustCompile(`[:(]\s*$`)
	pageAfterRe  = regexp.MustCompile(`^\s*[\x{2013}-]\s*\d`)
	pageEndRe    = regexp.MustCompile(`\d\s*[\x{2013}-]\s*$`)
)

// looksLikePageRange reports whether the token at [start,end) has the
// shape of a page range rather than a year: preceded by a colon or open
// paren and followed by a dash and digits ("…:1929-…"), or preceded by
// digits and a dash (the closing half, "…-1958").
func looksLikePageRange(text string, start, end int) bool {
	before := text[max(0, start-3):start]
	stop := min(len(text), end+5)
	after := text[end:stop]
	if pageBeforeRe.MatchString(before) && pageAfterRe.MatchString(after) {
		return true
	}
	return pageEndRe.MatchString(before)
}
