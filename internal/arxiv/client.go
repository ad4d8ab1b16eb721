// Package arxiv is a rate-limited client for the arXiv export API. It
// serves as the identifier-lookup source for arXiv IDs and as a title
// search fallback, and knows where each paper's open-access PDF lives.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

const (
	// BaseURL is the arXiv Atom export API endpoint.
	BaseURL = "http://export.arxiv.org/api/query"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 15 * time.Second

	// RateLimit is the default request rate in requests per second.
	// arXiv asks clients to stay at or below this.
	RateLimit = 3.0

	// SourceName identifies arXiv in match records and attempt logs.
	SourceName = "arxiv"

	// DefaultSearchResults is the number of entries requested per title
	// search. Relevance ranking on arXiv is weak, so fetch generously.
	DefaultSearchResults = 15
)

// Client is a rate-limited HTTP client for the arXiv export API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a new arXiv client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the source name used in attempt records.
func (c *Client) Name() string { return SourceName }

// LookupByID fetches the paper metadata for a normalized arXiv ID.
// An unknown ID yields (nil, nil).
func (c *Client) LookupByID(ctx context.Context, id string) (*citation.MatchCandidate, error) {
	q := url.Values{}
	q.Set("id_list", id)
	entries, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	cand := entries[0].toCandidate()
	if cand.ArxivID == "" {
		// The API reports unknown IDs as an error pseudo-entry.
		return nil, nil
	}
	return &cand, nil
}

// SearchByTitle queries arXiv's full-text search with a title. It returns
// an empty slice when nothing matches.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]citation.MatchCandidate, error) {
	q := url.Values{}
	q.Set("search_query", "ti:"+quoteQuery(title))
	q.Set("max_results", strconv.Itoa(DefaultSearchResults))
	entries, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	candidates := make([]citation.MatchCandidate, 0, len(entries))
	for _, e := range entries {
		cand := e.toCandidate()
		if cand.ArxivID == "" {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

func (c *Client) query(ctx context.Context, q url.Values) ([]entry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: decoding feed: %v", ErrInvalidResponse, err)
	}
	return f.Entries, nil
}

// quoteQuery wraps multi-word queries in quotes for the arXiv query
// grammar.
func quoteQuery(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	if strings.ContainsRune(s, ' ') {
		return `"` + s + `"`
	}
	return s
}

// PDFURL returns the canonical open-access PDF URL for an arXiv ID.
func PDFURL(id string) string {
	return "https://arxiv.org/pdf/" + id
}

type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

type entry struct {
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Published string      `xml:"published"`
	DOI       string      `xml:"doi"`
	Journal   string      `xml:"journal_ref"`
	Authors   []entryName `xml:"author"`
	Links     []entryLink `xml:"link"`
}

type entryName struct {
	Name string `xml:"name"`
}

type entryLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// entryIDRe pulls the bare identifier out of an Atom entry id URL such
// as http://arxiv.org/abs/2301.12345v2 or
// http://arxiv.org/abs/hep-th/9901001v2.
var entryIDRe = regexp.MustCompile(`([a-z-]+(?:\.[A-Za-z]{2})?/\d{7}|\d{4}\.\d{4,5})(?:v\d+)?$`)

func (e entry) toCandidate() citation.MatchCandidate {
	cand := citation.MatchCandidate{
		Source:     SourceName,
		Title:      strings.Join(strings.Fields(e.Title), " "),
		DOI:        strings.ToLower(e.DOI),
		Venue:      e.Journal,
		OpenAccess: true,
	}
	if m := entryIDRe.FindStringSubmatch(e.ID); m != nil {
		cand.ArxivID = m[1]
	}
	if len(e.Published) >= 4 {
		if y, err := strconv.Atoi(e.Published[:4]); err == nil {
			cand.Year = y
		}
	}
	for _, a := range e.Authors {
		if a.Name != "" {
			cand.Authors = append(cand.Authors, a.Name)
		}
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			cand.PDFURL = l.Href
			break
		}
	}
	if cand.PDFURL == "" && cand.ArxivID != "" {
		cand.PDFURL = PDFURL(cand.ArxivID)
	}
	return cand
}
