// Package citation defines the core domain types for citation verification.
package citation

import "fmt"

// Citation is one parsed reference-list entry. Parsing is best effort:
// fields that could not be confidently extracted are left at their zero
// value rather than guessed. A Citation is immutable after parsing.
type Citation struct {
	// Number is the reference marker as it appeared in the source
	// document ("12" for "[12]"), or a positional index when the
	// reference list carries no markers.
	Number  string `json:"number"`
	RawText string `json:"raw_text"`

	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	Venue   string   `json:"venue,omitempty"`
	DOI     string   `json:"doi,omitempty"`
	ArxivID string   `json:"arxiv_id,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// MatchCandidate is one external source's answer for one citation.
// Fields absent from the source response stay at their zero value.
type MatchCandidate struct {
	Source        string   `json:"source"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Year          int      `json:"year,omitempty"`
	Venue         string   `json:"venue,omitempty"`
	DOI           string   `json:"doi,omitempty"`
	ArxivID       string   `json:"arxiv_id,omitempty"`
	PDFURL        string   `json:"pdf_url,omitempty"`
	CitationCount int      `json:"citation_count,omitempty"`
	PubType       string   `json:"pub_type,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	OpenAccess    bool     `json:"open_access,omitempty"`
}

// VerificationStatus is the terminal state of one citation's verification.
type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "verified"
	StatusUnverified VerificationStatus = "unverified"
)

// VerificationMethod records which tier produced an accepted match.
type VerificationMethod string

const (
	MethodDOI   VerificationMethod = "doi"
	MethodArxiv VerificationMethod = "arxiv"
	MethodTitle VerificationMethod = "title"
)

// AttemptResult classifies what querying a single source produced.
type AttemptResult string

const (
	AttemptAccepted       AttemptResult = "accepted"
	AttemptNoCandidates   AttemptResult = "no_candidates"
	AttemptBelowThreshold AttemptResult = "below_threshold"
	AttemptSourceFailed   AttemptResult = "source_failed"
)

// SourceAttempt records the outcome of one source query for one citation.
// Unverified outcomes carry one attempt per source tried.
type SourceAttempt struct {
	Source         string        `json:"source"`
	Result         AttemptResult `json:"result"`
	BestSimilarity float64       `json:"best_similarity,omitempty"`
}

// DiscrepancyKind identifies the type of a detected metadata mismatch.
type DiscrepancyKind string

const (
	DiscrepancyYearMismatch DiscrepancyKind = "year_mismatch"
)

// Discrepancy is a typed mismatch between a citation's stated metadata
// and the metadata of its accepted match.
type Discrepancy struct {
	Kind    DiscrepancyKind `json:"kind"`
	Cited   string          `json:"cited"`
	Matched string          `json:"matched"`
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s: cited %s, matched %s", d.Kind, d.Cited, d.Matched)
}

// VerificationOutcome is the single terminal result for one citation.
// A verified outcome carries the accepted match, the similarity that
// accepted it, and any discrepancies; an unverified outcome carries the
// per-source attempt records instead.
type VerificationOutcome struct {
	Status        VerificationStatus `json:"status"`
	Method        VerificationMethod `json:"method,omitempty"`
	Match         *MatchCandidate    `json:"match,omitempty"`
	Similarity    float64            `json:"similarity,omitempty"`
	Discrepancies []Discrepancy      `json:"discrepancies,omitempty"`
	Attempts      []SourceAttempt    `json:"attempts,omitempty"`
}

// Verified reports whether the outcome holds an accepted match.
func (o *VerificationOutcome) Verified() bool {
	return o != nil && o.Status == StatusVerified
}

// QualityScore is the 0-100 quality breakdown for a verified citation.
type QualityScore struct {
	Total         int    `json:"total"`
	Verification  int    `json:"verification"`
	PeerReview    int    `json:"peer_review"`
	Recency       int    `json:"recency"`
	Citations     int    `json:"citations"`
	Accessibility int    `json:"accessibility"`
	Venue         int    `json:"venue"`
	Explanation   string `json:"explanation,omitempty"`
}

// DownloadResult reports the outcome of one open-access PDF download.
type DownloadResult struct {
	Success  bool   `json:"success"`
	Path     string `json:"pdf_path,omitempty"`
	Source   string `json:"source,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Error    string `json:"error,omitempty"`
}

// VerifiedCitation couples a citation with everything the pipeline
// produced for it.
type VerifiedCitation struct {
	Citation
	Verification *VerificationOutcome `json:"verification,omitempty"`
	Quality      *QualityScore        `json:"quality_score,omitempty"`
	Download     *DownloadResult      `json:"pdf_download,omitempty"`
}
