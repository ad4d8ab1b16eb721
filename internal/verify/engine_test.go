package verify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

// fakeLookup is an IdentifierLookupSource scripted per identifier.
type fakeLookup struct {
	name  string
	cands map[string]*citation.MatchCandidate
	err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeLookup) Name() string { return f.name }

func (f *fakeLookup) LookupByID(ctx context.Context, id string) (*citation.MatchCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.cands[id], nil
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSearch is a TitleSearchSource returning a fixed candidate list.
type fakeSearch struct {
	name  string
	cands []citation.MatchCandidate
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (f *fakeSearch) Name() string { return f.name }

func (f *fakeSearch) SearchByTitle(ctx context.Context, title string) ([]citation.MatchCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.cands, nil
}

func (f *fakeSearch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestVerify_DOITierAcceptedUnconditionally(t *testing.T) {
	// The identifier hit's title is nothing like the citation's; it must
	// be accepted anyway and the title tiers must never run.
	doi := &fakeLookup{name: "crossref", cands: map[string]*citation.MatchCandidate{
		"10.1038/nature14539": {Source: "crossref", Title: "Something Entirely Different", DOI: "10.1038/nature14539"},
	}}
	titles := &fakeSearch{name: "crossref"}
	e := NewEngine(doi, nil, []TitleSearchSource{titles}, Options{})

	out := e.Verify(context.Background(), citation.Citation{
		Number: "1",
		Title:  "Deep learning",
		DOI:    "10.1038/nature14539",
	})

	if out.Status != citation.StatusVerified {
		t.Fatalf("status = %s, want verified", out.Status)
	}
	if out.Method != citation.MethodDOI {
		t.Errorf("method = %s, want doi", out.Method)
	}
	if out.Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", out.Similarity)
	}
	if out.Match == nil || out.Match.DOI != "10.1038/nature14539" {
		t.Errorf("unexpected match: %+v", out.Match)
	}
	if titles.callCount() != 0 {
		t.Errorf("title search ran %d times, want 0", titles.callCount())
	}
}

func TestVerify_ArxivTierAfterDOIMiss(t *testing.T) {
	doi := &fakeLookup{name: "crossref"} // no candidates
	arxiv := &fakeLookup{name: "arxiv", cands: map[string]*citation.MatchCandidate{
		"1706.03762": {Source: "arxiv", Title: "Attention Is All You Need", ArxivID: "1706.03762"},
	}}
	titles := &fakeSearch{name: "crossref"}
	e := NewEngine(doi, arxiv, []TitleSearchSource{titles}, Options{})

	out := e.Verify(context.Background(), citation.Citation{
		Number:  "1",
		Title:   "Attention is all you need",
		DOI:     "10.9999/does.not.exist",
		ArxivID: "1706.03762",
	})

	if out.Status != citation.StatusVerified || out.Method != citation.MethodArxiv {
		t.Fatalf("got %s/%s, want verified/arxiv", out.Status, out.Method)
	}
	if doi.callCount() != 1 {
		t.Errorf("doi lookups = %d, want 1", doi.callCount())
	}
	if titles.callCount() != 0 {
		t.Errorf("title search ran %d times, want 0", titles.callCount())
	}
}

func TestVerify_TitleTierOrder(t *testing.T) {
	// Primary returns nothing; secondary accepts. The third source must
	// never be queried.
	primary := &fakeSearch{name: "crossref"}
	secondary := &fakeSearch{name: "semantic_scholar", cands: []citation.MatchCandidate{
		{Source: "semantic_scholar", Title: "Attention Is All You Need", Year: 2017},
	}}
	tertiary := &fakeSearch{name: "arxiv"}
	e := NewEngine(nil, nil, []TitleSearchSource{primary, secondary, tertiary}, Options{})

	out := e.Verify(context.Background(), citation.Citation{
		Number: "1",
		Title:  "Attention is all you need",
	})

	if out.Status != citation.StatusVerified || out.Method != citation.MethodTitle {
		t.Fatalf("got %s/%s, want verified/title", out.Status, out.Method)
	}
	if out.Match.Source != "semantic_scholar" {
		t.Errorf("match source = %s, want semantic_scholar", out.Match.Source)
	}
	if primary.callCount() != 1 || secondary.callCount() != 1 || tertiary.callCount() != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0",
			primary.callCount(), secondary.callCount(), tertiary.callCount())
	}
}

func TestVerify_AcceptsAtExactThreshold(t *testing.T) {
	// Folded titles are 20 characters apart by 3 edits: similarity is
	// exactly the default threshold and must be accepted.
	src := &fakeSearch{name: "crossref", cands: []citation.MatchCandidate{
		{Source: "crossref", Title: "abcdefghijklmnopqxyz"},
	}}
	e := NewEngine(nil, nil, []TitleSearchSource{src}, Options{})

	out := e.Verify(context.Background(), citation.Citation{
		Number: "1",
		Title:  "abcdefghijklmnopqrst",
	})

	if out.Status != citation.StatusVerified {
		t.Fatalf("similarity at the threshold was rejected: %+v", out)
	}
}

func TestVerify_RejectsJustBelowThreshold(t *testing.T) {
	// Folded titles are 26 characters apart by 4 edits: similarity is
	// 22/26, a hair under the default threshold, and must be rejected.
	src := &fakeSearch{name: "crossref", cands: []citation.MatchCandidate{
		{Source: "crossref", Title: "abcdefghijklmnopqrstuv1234"},
	}}
	e := NewEngine(nil, nil, []TitleSearchSource{src}, Options{})

	out := e.Verify(context.Background(), citation.Citation{
		Number: "1",
		Title:  "abcdefghijklmnopqrstuvwxyz",
	})

	if out.Status != citation.StatusUnverified {
		t.Fatalf("similarity below the threshold was accepted: %+v", out)
	}
	if len(out.Attempts) != 1 || out.Attempts[0].Result != citation.AttemptBelowThreshold {
		t.Fatalf("attempts = %+v", out.Attempts)
	}
	if got := out.Attempts[0].BestSimilarity; got < 0.846 || got >= 0.85 {
		t.Errorf("best similarity = %v, want just under 0.85", got)
	}
}

func TestVerify_UnverifiedRecordsAttempts(t *testing.T) {
	doi := &fakeLookup{name: "crossref", err: errors.New("boom")}
	primary := &fakeSearch{name: "crossref", cands: []citation.MatchCandidate{
		{Source: "crossref", Title: "A Wholly Unrelated Paper About Fish"},
	}}
	secondary := &fakeSearch{name: "semantic_scholar"}
	e := NewEngine(doi, nil, []TitleSearchSource{primary, secondary}, Options{})

	out := e.Verify(context.Background(), citation.Citation{
		Number: "1",
		Title:  "Quantum error correction with surface codes",
		DOI:    "10.1234/whatever",
	})

	if out.Status != citation.StatusUnverified {
		t.Fatalf("status = %s, want unverified", out.Status)
	}
	want := []struct {
		source string
		result citation.AttemptResult
	}{
		{"crossref", citation.AttemptSourceFailed},
		{"crossref", citation.AttemptBelowThreshold},
		{"semantic_scholar", citation.AttemptNoCandidates},
	}
	if len(out.Attempts) != len(want) {
		t.Fatalf("attempts = %+v, want %d entries", out.Attempts, len(want))
	}
	for i, w := range want {
		if out.Attempts[i].Source != w.source || out.Attempts[i].Result != w.result {
			t.Errorf("attempt %d = %+v, want %s/%s", i, out.Attempts[i], w.source, w.result)
		}
	}
	if out.Attempts[1].BestSimilarity <= 0 {
		t.Errorf("below-threshold attempt should record best similarity, got %v",
			out.Attempts[1].BestSimilarity)
	}
}

func TestVerify_NoIdentifiersNoTitle(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{})
	out := e.Verify(context.Background(), citation.Citation{Number: "1", RawText: "???"})
	if out.Status != citation.StatusUnverified {
		t.Fatalf("status = %s, want unverified", out.Status)
	}
	if len(out.Attempts) != 0 {
		t.Errorf("attempts = %+v, want none", out.Attempts)
	}
}

func TestVerify_YearDiscrepancy(t *testing.T) {
	src := &fakeSearch{name: "crossref", cands: []citation.MatchCandidate{
		{Source: "crossref", Title: "Attention Is All You Need", Year: 2017},
	}}
	e := NewEngine(nil, nil, []TitleSearchSource{src}, Options{})

	out := e.Verify(context.Background(), citation.Citation{
		Number: "1",
		Title:  "Attention is all you need",
		Year:   2018,
	})

	if out.Status != citation.StatusVerified {
		t.Fatalf("status = %s, want verified", out.Status)
	}
	if len(out.Discrepancies) != 1 {
		t.Fatalf("discrepancies = %+v, want 1", out.Discrepancies)
	}
	d := out.Discrepancies[0]
	if d.Kind != citation.DiscrepancyYearMismatch || d.Cited != "2018" || d.Matched != "2017" {
		t.Errorf("unexpected discrepancy: %+v", d)
	}
}

func TestVerify_YearToleranceSuppressesDiscrepancy(t *testing.T) {
	src := &fakeSearch{name: "crossref", cands: []citation.MatchCandidate{
		{Source: "crossref", Title: "Attention Is All You Need", Year: 2017},
	}}
	e := NewEngine(nil, nil, []TitleSearchSource{src}, Options{YearTolerance: 1})

	out := e.Verify(context.Background(), citation.Citation{
		Number: "1",
		Title:  "Attention is all you need",
		Year:   2018,
	})

	if len(out.Discrepancies) != 0 {
		t.Errorf("discrepancies = %+v, want none with tolerance 1", out.Discrepancies)
	}
}

func TestPickBest_YearBreaksTies(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{})
	c := citation.Citation{Title: "Attention is all you need", Year: 2017}
	cands := []citation.MatchCandidate{
		{Source: "a", Title: "Attention Is All You Need", Year: 2023},
		{Source: "b", Title: "Attention Is All You Need", Year: 2017},
	}
	best, sim := e.pickBest(c, cands)
	if best.Source != "b" {
		t.Errorf("best = %s, want b (year match)", best.Source)
	}
	if sim != 1.0 {
		t.Errorf("sim = %v, want 1.0", sim)
	}
}

func TestPickBest_EarlierWinsRemainingTies(t *testing.T) {
	e := NewEngine(nil, nil, nil, Options{})
	c := citation.Citation{Title: "Attention is all you need"}
	cands := []citation.MatchCandidate{
		{Source: "a", Title: "Attention Is All You Need"},
		{Source: "b", Title: "Attention Is All You Need"},
	}
	best, _ := e.pickBest(c, cands)
	if best.Source != "a" {
		t.Errorf("best = %s, want a (input order)", best.Source)
	}
}

func TestVerifyAll_PreservesOrder(t *testing.T) {
	// Each citation resolves via its DOI to a candidate carrying the same
	// marker. Random per-call latencies shuffle completion order; output
	// order must still match input order.
	const n = 20
	cands := make(map[string]*citation.MatchCandidate, n)
	citations := make([]citation.Citation, n)
	for i := 0; i < n; i++ {
		doi := fmt.Sprintf("10.1000/paper.%d", i)
		cands[doi] = &citation.MatchCandidate{Source: "crossref", Title: fmt.Sprintf("Paper %d", i), DOI: doi}
		citations[i] = citation.Citation{Number: fmt.Sprintf("%d", i+1), DOI: doi}
	}
	doi := &slowLookup{
		fakeLookup: fakeLookup{name: "crossref", cands: cands},
		maxDelay:   5 * time.Millisecond,
	}
	e := NewEngine(doi, nil, nil, Options{Concurrency: 8})

	outcomes := e.VerifyAll(context.Background(), citations)

	if len(outcomes) != n {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), n)
	}
	for i, out := range outcomes {
		if out.Status != citation.StatusVerified {
			t.Fatalf("outcome %d unverified: %+v", i, out)
		}
		wantDOI := fmt.Sprintf("10.1000/paper.%d", i)
		if out.Match.DOI != wantDOI {
			t.Errorf("outcome %d matched %s, want %s", i, out.Match.DOI, wantDOI)
		}
	}
}

// slowLookup wraps fakeLookup with a random delay per call.
type slowLookup struct {
	fakeLookup
	maxDelay time.Duration
}

func (s *slowLookup) LookupByID(ctx context.Context, id string) (*citation.MatchCandidate, error) {
	time.Sleep(time.Duration(rand.Int63n(int64(s.maxDelay))))
	return s.fakeLookup.LookupByID(ctx, id)
}

func TestVerifyAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doi := &fakeLookup{name: "crossref", cands: map[string]*citation.MatchCandidate{
		"10.1000/x": {Source: "crossref", Title: "X", DOI: "10.1000/x"},
	}}
	e := NewEngine(doi, nil, nil, Options{Concurrency: 1})

	citations := make([]citation.Citation, 5)
	for i := range citations {
		citations[i] = citation.Citation{Number: fmt.Sprintf("%d", i+1), DOI: "10.1000/x"}
	}
	outcomes := e.VerifyAll(ctx, citations)

	if len(outcomes) != len(citations) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(citations))
	}
	for i, out := range outcomes {
		if out.Status == "" {
			t.Errorf("outcome %d has no status", i)
		}
	}
}

func TestVerifyAll_OnOutcomeCalledPerCitation(t *testing.T) {
	src := &fakeSearch{name: "crossref", cands: []citation.MatchCandidate{
		{Source: "crossref", Title: "Attention Is All You Need"},
	}}

	var mu sync.Mutex
	seen := make(map[int]bool)
	e := NewEngine(nil, nil, []TitleSearchSource{src}, Options{
		OnOutcome: func(i int) {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		},
	})

	citations := []citation.Citation{
		{Number: "1", Title: "Attention is all you need"},
		{Number: "2", Title: "Attention is all you need"},
		{Number: "3", Title: "Attention is all you need"},
	}
	e.VerifyAll(context.Background(), citations)

	if len(seen) != len(citations) {
		t.Errorf("OnOutcome saw %d indices, want %d", len(seen), len(citations))
	}
}

// memCache is an in-memory Cache for engine tests.
type memCache struct {
	mu sync.Mutex
	m  map[string]*citation.VerificationOutcome
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string]*citation.VerificationOutcome)}
}

func (c *memCache) Get(queryType, value string) (*citation.VerificationOutcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.m[queryType+":"+value]
	return out, ok
}

func (c *memCache) Set(queryType, value string, out *citation.VerificationOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[queryType+":"+value] = out
}

func TestVerify_CachedOutcomeSkipsSource(t *testing.T) {
	doi := &fakeLookup{name: "crossref", cands: map[string]*citation.MatchCandidate{
		"10.1038/nature14539": {Source: "crossref", Title: "Deep learning", DOI: "10.1038/nature14539"},
	}}
	e := NewEngine(doi, nil, nil, Options{Cache: newMemCache()})

	c := citation.Citation{Number: "1", DOI: "10.1038/nature14539"}
	first := e.Verify(context.Background(), c)
	second := e.Verify(context.Background(), c)

	if doi.callCount() != 1 {
		t.Errorf("doi lookups = %d, want 1 (second call cached)", doi.callCount())
	}
	if first.Status != second.Status || first.Match.DOI != second.Match.DOI {
		t.Errorf("cached outcome differs: %+v vs %+v", first, second)
	}
}

func TestVerify_CacheHitDoesNotReplayForeignAttempts(t *testing.T) {
	// Citation A fails its DOI tier before verifying by title. Citation
	// B shares the title but has no DOI; the cached outcome it receives
	// must carry B's trajectory, not A's failed crossref attempt.
	doi := &fakeLookup{name: "crossref", err: errors.New("crossref down")}
	search := &fakeSearch{name: "semantic_scholar", cands: []citation.MatchCandidate{
		{Source: "semantic_scholar", Title: "Deep learning"},
	}}
	e := NewEngine(doi, nil, []TitleSearchSource{search}, Options{Cache: newMemCache()})

	a := citation.Citation{Number: "1", DOI: "10.1038/nature14539", Title: "Deep learning"}
	first := e.Verify(context.Background(), a)
	if len(first.Attempts) != 2 || first.Attempts[0].Result != citation.AttemptSourceFailed {
		t.Fatalf("first trajectory = %+v", first.Attempts)
	}

	b := citation.Citation{Number: "2", Title: "Deep learning"}
	second := e.Verify(context.Background(), b)
	if search.callCount() != 1 {
		t.Fatalf("title searches = %d, want 1 (second call cached)", search.callCount())
	}
	if !second.Verified() {
		t.Fatal("expected a verified cached outcome")
	}
	if len(second.Attempts) != 1 {
		t.Fatalf("cached attempts = %+v, want only the accepting attempt", second.Attempts)
	}
	if got := second.Attempts[0]; got.Source != "semantic_scholar" || got.Result != citation.AttemptAccepted {
		t.Errorf("cached attempt = %+v", got)
	}
}
