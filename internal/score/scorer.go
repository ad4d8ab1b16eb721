// Package score converts a verification outcome into a 0-100 quality
// score across six dimensions: verification 25, peer review 20, recency
// 15, citation impact 15, accessibility 15, venue 10. Pure arithmetic,
// no I/O.
package score

import (
	"strings"
	"time"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

var topVenues = []string{
	"nature", "science", "cell", "lancet",
	"neurips", "icml", "iclr", "cvpr", "aaai",
	"acl", "emnlp", "naacl", "iccv", "eccv",
}

var reputablePublishers = []string{
	"springer", "elsevier", "ieee", "acm", "oxford", "cambridge", "wiley",
}

// Score computes the quality breakdown for one citation's outcome.
func Score(c citation.Citation, out *citation.VerificationOutcome) citation.QualityScore {
	s := citation.QualityScore{
		Verification:  scoreVerification(out),
		PeerReview:    scorePeerReview(out),
		Recency:       scoreRecency(c, out),
		Citations:     scoreCitations(out),
		Accessibility: scoreAccessibility(out),
		Venue:         scoreVenue(out),
	}
	s.Total = s.Verification + s.PeerReview + s.Recency + s.Citations + s.Accessibility + s.Venue
	s.Explanation = explain(s)
	return s
}

// scoreVerification awards up to 25 points. Identifier-tier matches are
// authoritative and score full marks; title matches score by how far
// above the threshold they landed.
func scoreVerification(out *citation.VerificationOutcome) int {
	if !out.Verified() {
		return 0
	}
	switch {
	case out.Method == citation.MethodDOI || out.Method == citation.MethodArxiv:
		return 25
	case out.Similarity > 0.95:
		return 20
	default:
		return 15
	}
}

func scorePeerReview(out *citation.VerificationOutcome) int {
	if !out.Verified() {
		return 0
	}
	m := out.Match
	switch m.PubType {
	case "journal-article", "journalarticle":
		return 20
	case "proceedings-article", "book-chapter", "conference":
		return 15
	case "posted-content":
		return 10
	}
	if m.ArxivID != "" && m.DOI != "" {
		return 20 // published version exists alongside the preprint
	}
	if m.ArxivID != "" {
		return 10 // preprint only
	}
	if m.Source == "semantic_scholar" && m.Venue != "" {
		return 15
	}
	return 5
}

func scoreRecency(c citation.Citation, out *citation.VerificationOutcome) int {
	year := c.Year
	if out.Verified() && out.Match.Year != 0 {
		year = out.Match.Year
	}
	if year == 0 {
		return 8 // neutral
	}

	age := time.Now().Year() - year
	switch {
	case age <= 2:
		return 15
	case age <= 5:
		return 12
	case age <= 10:
		return 8
	case age <= 20:
		return 5
	default:
		return 3 // classic work
	}
}

func scoreCitations(out *citation.VerificationOutcome) int {
	if !out.Verified() {
		return 0
	}
	count := out.Match.CitationCount
	switch {
	case count >= 1000:
		return 15
	case count >= 500:
		return 12
	case count >= 100:
		return 10
	case count >= 20:
		return 7
	case count >= 5:
		return 5
	case count >= 1:
		return 3
	}
	// Benefit of the doubt for papers too new to be cited.
	if out.Match.Year >= time.Now().Year()-1 {
		return 5
	}
	return 0
}

func scoreAccessibility(out *citation.VerificationOutcome) int {
	if !out.Verified() {
		return 5
	}
	m := out.Match
	switch {
	case m.ArxivID != "":
		return 15 // arXiv is always open
	case m.OpenAccess || m.PDFURL != "":
		return 15
	case m.DOI != "":
		return 10 // may be reachable via an institution
	default:
		return 5 // probably paywalled
	}
}

func scoreVenue(out *citation.VerificationOutcome) int {
	if !out.Verified() {
		return 0
	}
	m := out.Match

	venue := strings.ToLower(m.Venue)
	for _, top := range topVenues {
		if strings.Contains(venue, top) {
			return 10
		}
	}

	publisher := strings.ToLower(m.Publisher)
	for _, pub := range reputablePublishers {
		if strings.Contains(publisher, pub) {
			return 8
		}
	}

	if m.PubType == "journal-article" || m.PubType == "journalarticle" {
		return 7
	}
	return 5
}

func explain(s citation.QualityScore) string {
	var parts []string
	switch {
	case s.Verification >= 20:
		parts = append(parts, "verified")
	case s.Verification < 10:
		parts = append(parts, "verification issues")
	}
	switch {
	case s.PeerReview >= 15:
		parts = append(parts, "peer-reviewed")
	case s.PeerReview == 10:
		parts = append(parts, "preprint")
	}
	if s.Recency <= 5 {
		parts = append(parts, "older reference")
	}
	if s.Citations >= 12 {
		parts = append(parts, "highly cited")
	}
	switch {
	case s.Accessibility >= 15:
		parts = append(parts, "open access")
	case s.Accessibility <= 5:
		parts = append(parts, "paywalled")
	}
	if len(parts) == 0 {
		return "standard citation"
	}
	return strings.Join(parts, ", ")
}
