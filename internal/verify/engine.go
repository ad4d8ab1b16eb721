// Package verify implements the tiered multi-source citation
// verification engine. Each citation is resolved through an explicit
// sequence of tiers: identifier lookups (DOI, then arXiv ID), which are
// authoritative, then title searches against each configured source in
// priority order, accepted only above a similarity threshold. The engine
// always produces exactly one outcome per input citation.
package verify

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

// IdentifierLookupSource resolves an exact, unambiguous identifier to at
// most one candidate. A (nil, nil) return means the identifier is not
// registered with the source; an error means the source itself failed.
type IdentifierLookupSource interface {
	Name() string
	LookupByID(ctx context.Context, id string) (*citation.MatchCandidate, error)
}

// TitleSearchSource returns candidates for a free-text title query. An
// empty slice with a nil error means the search found nothing.
type TitleSearchSource interface {
	Name() string
	SearchByTitle(ctx context.Context, title string) ([]citation.MatchCandidate, error)
}

// Cache stores outcomes keyed by query type and value. Implementations
// absorb their own failures; the engine never sees cache errors.
type Cache interface {
	Get(queryType, value string) (*citation.VerificationOutcome, bool)
	Set(queryType, value string, out *citation.VerificationOutcome)
}

const (
	// DefaultThreshold is the similarity a title-search candidate must
	// reach to be accepted.
	DefaultThreshold = 0.85

	// DefaultYearTolerance is the allowed difference between a cited
	// year and a matched year before a discrepancy is recorded.
	DefaultYearTolerance = 0

	// DefaultConcurrency bounds the number of citations verified in
	// parallel by VerifyAll.
	DefaultConcurrency = 4
)

// Options configures an Engine. Zero values select the defaults above.
type Options struct {
	Threshold     float64
	YearTolerance int
	Concurrency   int
	Cache         Cache
	Logger        *zap.SugaredLogger

	// OnOutcome, when set, is called after each citation resolves,
	// with the citation's input index. Used for progress reporting.
	OnOutcome func(index int)
}

// Engine verifies citations against a fixed set of sources.
type Engine struct {
	doi         IdentifierLookupSource
	arxiv       IdentifierLookupSource
	titles      []TitleSearchSource
	threshold   float64
	yearTol     int
	concurrency int
	cache       Cache
	log         *zap.SugaredLogger
	onOutcome   func(int)
}

// NewEngine creates a verification engine. doi and arxiv serve the
// identifier tiers and may be nil to disable a tier; titles are tried in
// slice order for the title-search tiers.
func NewEngine(doi, arxiv IdentifierLookupSource, titles []TitleSearchSource, opts Options) *Engine {
	e := &Engine{
		doi:         doi,
		arxiv:       arxiv,
		titles:      titles,
		threshold:   opts.Threshold,
		yearTol:     opts.YearTolerance,
		concurrency: opts.Concurrency,
		cache:       opts.Cache,
		log:         opts.Logger,
		onOutcome:   opts.OnOutcome,
	}
	if e.threshold == 0 {
		e.threshold = DefaultThreshold
	}
	if e.yearTol < 0 {
		e.yearTol = DefaultYearTolerance
	}
	if e.concurrency <= 0 {
		e.concurrency = DefaultConcurrency
	}
	if e.log == nil {
		e.log = zap.NewNop().Sugar()
	}
	return e
}

// VerifyAll verifies every citation with bounded parallelism and returns
// outcomes in input order regardless of completion order. When ctx is
// cancelled, in-flight work is abandoned and unprocessed citations
// resolve to unverified outcomes; completed outcomes are preserved.
func (e *Engine) VerifyAll(ctx context.Context, citations []citation.Citation) []citation.VerificationOutcome {
	outcomes := make([]citation.VerificationOutcome, len(citations))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i := range citations {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				outcomes[i] = e.Verify(ctx, citations[i])
				if e.onOutcome != nil {
					e.onOutcome(i)
				}
			}(i)
			continue
		}
		break
	}
	wg.Wait()

	// The contract is one outcome per citation even when cancelled.
	for i := range outcomes {
		if outcomes[i].Status == "" {
			outcomes[i] = citation.VerificationOutcome{Status: citation.StatusUnverified}
		}
	}
	return outcomes
}

// Verify resolves a single citation through the tier sequence and
// returns its one terminal outcome. Source failures are absorbed as
// empty tiers; Verify itself never fails.
func (e *Engine) Verify(ctx context.Context, c citation.Citation) citation.VerificationOutcome {
	e.log.Debugw("verifying citation", "number", c.Number, "doi", c.DOI, "arxiv", c.ArxivID)

	var attempts []citation.SourceAttempt

	if c.DOI != "" && e.doi != nil {
		if out, ok := e.lookupTier(ctx, citation.MethodDOI, e.doi, c, c.DOI, &attempts); ok {
			return out
		}
	}
	if c.ArxivID != "" && e.arxiv != nil {
		if out, ok := e.lookupTier(ctx, citation.MethodArxiv, e.arxiv, c, c.ArxivID, &attempts); ok {
			return out
		}
	}
	if c.Title != "" {
		if out, ok := e.titleTiers(ctx, c, &attempts); ok {
			return out
		}
	}

	e.log.Debugw("citation unverified", "number", c.Number, "attempts", len(attempts))
	return citation.VerificationOutcome{
		Status:   citation.StatusUnverified,
		Attempts: attempts,
	}
}

// lookupTier runs one identifier tier. An identifier hit is accepted
// unconditionally: identifiers are authoritative, no similarity check.
func (e *Engine) lookupTier(ctx context.Context, method citation.VerificationMethod, src IdentifierLookupSource, c citation.Citation, id string, attempts *[]citation.SourceAttempt) (citation.VerificationOutcome, bool) {
	queryType := string(method)
	if e.cache != nil {
		if out, ok := e.cache.Get(queryType, id); ok {
			e.log.Debugw("cache hit", "number", c.Number, "type", queryType)
			return withAttempts(*out, *attempts), out.Verified()
		}
	}

	cand, err := src.LookupByID(ctx, id)
	if err != nil {
		e.log.Debugw("identifier lookup failed", "number", c.Number, "source", src.Name(), "error", err)
		*attempts = append(*attempts, citation.SourceAttempt{
			Source: src.Name(),
			Result: citation.AttemptSourceFailed,
		})
		return citation.VerificationOutcome{}, false
	}
	if cand == nil {
		*attempts = append(*attempts, citation.SourceAttempt{
			Source: src.Name(),
			Result: citation.AttemptNoCandidates,
		})
		return citation.VerificationOutcome{}, false
	}

	*attempts = append(*attempts, citation.SourceAttempt{
		Source: src.Name(),
		Result: citation.AttemptAccepted,
	})
	out := citation.VerificationOutcome{
		Status:        citation.StatusVerified,
		Method:        method,
		Match:         cand,
		Similarity:    1.0,
		Discrepancies: e.findDiscrepancies(c, cand),
		Attempts:      *attempts,
	}
	e.log.Debugw("verified via identifier", "number", c.Number, "source", src.Name())
	if e.cache != nil {
		e.cache.Set(queryType, id, cacheable(out))
	}
	return out, true
}

// titleTiers runs the title-search tiers in priority order. Each tier
// runs only because every earlier tier failed to accept.
func (e *Engine) titleTiers(ctx context.Context, c citation.Citation, attempts *[]citation.SourceAttempt) (citation.VerificationOutcome, bool) {
	if e.cache != nil {
		if out, ok := e.cache.Get("title", c.Title); ok {
			e.log.Debugw("cache hit", "number", c.Number, "type", "title")
			return withAttempts(*out, *attempts), out.Verified()
		}
	}

	for _, src := range e.titles {
		cands, err := src.SearchByTitle(ctx, c.Title)
		if err != nil {
			e.log.Debugw("title search failed", "number", c.Number, "source", src.Name(), "error", err)
			*attempts = append(*attempts, citation.SourceAttempt{
				Source: src.Name(),
				Result: citation.AttemptSourceFailed,
			})
			continue
		}
		if len(cands) == 0 {
			*attempts = append(*attempts, citation.SourceAttempt{
				Source: src.Name(),
				Result: citation.AttemptNoCandidates,
			})
			continue
		}

		best, sim := e.pickBest(c, cands)
		if sim < e.threshold {
			*attempts = append(*attempts, citation.SourceAttempt{
				Source:         src.Name(),
				Result:         citation.AttemptBelowThreshold,
				BestSimilarity: sim,
			})
			continue
		}

		*attempts = append(*attempts, citation.SourceAttempt{
			Source:         src.Name(),
			Result:         citation.AttemptAccepted,
			BestSimilarity: sim,
		})
		out := citation.VerificationOutcome{
			Status:        citation.StatusVerified,
			Method:        citation.MethodTitle,
			Match:         best,
			Similarity:    sim,
			Discrepancies: e.findDiscrepancies(c, best),
			Attempts:      *attempts,
		}
		e.log.Debugw("verified via title search", "number", c.Number, "source", src.Name(), "similarity", sim)
		if e.cache != nil {
			e.cache.Set("title", c.Title, cacheable(out))
		}
		return out, true
	}
	return citation.VerificationOutcome{}, false
}

// cacheable strips the caching citation's attempt trail down to the
// accepting attempt. Cache entries are keyed by query, and attempts
// from earlier tiers belong to one citation's trajectory, not to the
// query's answer.
func cacheable(out citation.VerificationOutcome) *citation.VerificationOutcome {
	if n := len(out.Attempts); n > 0 {
		out.Attempts = []citation.SourceAttempt{out.Attempts[n-1]}
	}
	return &out
}

// withAttempts grafts a cached outcome onto the current citation's
// trajectory so its attempt list reflects this citation's tiers.
func withAttempts(out citation.VerificationOutcome, attempts []citation.SourceAttempt) citation.VerificationOutcome {
	merged := make([]citation.SourceAttempt, 0, len(attempts)+len(out.Attempts))
	merged = append(merged, attempts...)
	merged = append(merged, out.Attempts...)
	out.Attempts = merged
	return out
}

// pickBest selects the candidate maximizing title similarity. Ties are
// broken in favor of a candidate whose year matches the citation's
// parsed year; earlier candidates win remaining ties, preserving source
// ranking.
func (e *Engine) pickBest(c citation.Citation, cands []citation.MatchCandidate) (*citation.MatchCandidate, float64) {
	bestIdx := 0
	bestSim := -1.0
	bestYearMatch := false
	for i := range cands {
		sim := TitleSimilarity(c.Title, cands[i].Title)
		yearMatch := c.Year != 0 && cands[i].Year == c.Year
		if sim > bestSim || (sim == bestSim && yearMatch && !bestYearMatch) {
			bestIdx, bestSim, bestYearMatch = i, sim, yearMatch
		}
	}
	return &cands[bestIdx], bestSim
}

// findDiscrepancies compares the citation's parsed fields with the
// accepted match. Only the year is checked: once similarity has cleared
// the threshold, title and venue differences carry no signal.
func (e *Engine) findDiscrepancies(c citation.Citation, m *citation.MatchCandidate) []citation.Discrepancy {
	if c.Year == 0 || m.Year == 0 {
		return nil
	}
	diff := c.Year - m.Year
	if diff < 0 {
		diff = -diff
	}
	if diff <= e.yearTol {
		return nil
	}
	return []citation.Discrepancy{{
		Kind:    citation.DiscrepancyYearMismatch,
		Cited:   strconv.Itoa(c.Year),
		Matched: strconv.Itoa(m.Year),
	}}
}
