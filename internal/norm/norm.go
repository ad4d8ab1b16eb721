// Package norm canonicalizes bibliographic identifiers and strings so
// downstream comparisons are reliable. All functions are pure; no I/O.
package norm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidIdentifier indicates a string that does not have the shape of
// the identifier it was claimed to be. Callers treat it as "field absent".
var ErrInvalidIdentifier = errors.New("invalid identifier")

var (
	doiShapeRe     = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)
	arxivNewRe     = regexp.MustCompile(`^(\d{2})(\d{2})\.\d{4,5}$`)
	arxivOldRe     = regexp.MustCompile(`^[a-z-]+(?:\.[A-Za-z]{2})?/(\d{2})(\d{2})\d{3}$`)
	arxivVersionRe = regexp.MustCompile(`v\d+$`)
)

// doiURLPrefixes are stripped before shape validation, longest first.
var doiURLPrefixes = []string{
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"https://doi.org/",
	"http://doi.org/",
	"doi.org/",
	"doi:",
}

// NormalizeDOI lower-cases a DOI and strips URL scheme/host prefixes and
// surrounding whitespace and punctuation. It returns ErrInvalidIdentifier
// when the remainder does not match the registrant/suffix DOI shape.
func NormalizeDOI(doi string) (string, error) {
	s := strings.TrimSpace(doi)
	lower := strings.ToLower(s)
	for _, prefix := range doiURLPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			lower = lower[len(prefix):]
			break
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".,);:")
	s = strings.ToLower(s)

	if !doiShapeRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q is not a DOI", ErrInvalidIdentifier, doi)
	}
	return s, nil
}

// NormalizeArxivID strips the arXiv: prefix and any vN version suffix. It
// returns ErrInvalidIdentifier unless the remainder matches the old-style
// (category/YYMMNNN) or new-style (YYMM.NNNNN) identifier shape with a
// valid month in the YYMM prefix.
func NormalizeArxivID(id string) (string, error) {
	s := strings.TrimSpace(id)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "arxiv:") {
		s = strings.TrimSpace(s[len("arxiv:"):])
	}
	s = arxivVersionRe.ReplaceAllString(s, "")

	if m := arxivNewRe.FindStringSubmatch(s); m != nil {
		if validMonth(m[2]) {
			return s, nil
		}
	}
	if m := arxivOldRe.FindStringSubmatch(s); m != nil {
		if validMonth(m[2]) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not an arXiv ID", ErrInvalidIdentifier, id)
}

func validMonth(mm string) bool {
	n, err := strconv.Atoi(mm)
	return err == nil && n >= 1 && n <= 12
}
