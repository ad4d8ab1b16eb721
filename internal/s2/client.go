// Package s2 is a rate-limited client for the Semantic Scholar Graph
// API. It serves as the secondary title-search source.
package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
	"github.com/panchambanerjee/cite-verify-cli/internal/norm"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit is the default request rate in requests per second.
	// The unauthenticated shared pool allows one request per second.
	RateLimit = 1.0

	// SourceName identifies Semantic Scholar in match records and
	// attempt logs.
	SourceName = "semantic_scholar"

	// DefaultSearchLimit is the number of papers requested per search.
	DefaultSearchLimit = 5

	// DefaultPaperFields are the fields requested for paper search.
	DefaultPaperFields = "title,authors,year,venue,externalIds,citationCount,publicationTypes,isOpenAccess,openAccessPdf"
)

// Client is a rate-limited HTTP client for the Semantic Scholar API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

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

// NewClient creates a new Semantic Scholar client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the source name used in attempt records.
func (c *Client) Name() string { return SourceName }

// SearchByTitle queries paper search with a free-text title. It returns
// an empty slice when nothing matches.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]citation.MatchCandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("query", title)
	q.Set("limit", strconv.Itoa(DefaultSearchLimit))
	q.Set("fields", DefaultPaperFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/paper/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var body struct {
		Data []s2Paper `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding search results: %v", ErrInvalidResponse, err)
	}

	candidates := make([]citation.MatchCandidate, 0, len(body.Data))
	for _, p := range body.Data {
		candidates = append(candidates, p.toCandidate())
	}
	return candidates, nil
}

// s2Paper is the subset of a Semantic Scholar paper record the verifier
// consumes.
type s2Paper struct {
	PaperID          string     `json:"paperId"`
	Title            string     `json:"title"`
	Year             int        `json:"year"`
	Venue            string     `json:"venue"`
	CitationCount    int        `json:"citationCount"`
	IsOpenAccess     bool       `json:"isOpenAccess"`
	PublicationTypes []string   `json:"publicationTypes"`
	Authors          []s2Author `json:"authors"`
	ExternalIDs      struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	OpenAccessPdf *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

type s2Author struct {
	Name string `json:"name"`
}

func (p s2Paper) toCandidate() citation.MatchCandidate {
	cand := citation.MatchCandidate{
		Source:        SourceName,
		Title:         p.Title,
		Year:          p.Year,
		Venue:         p.Venue,
		DOI:           strings.ToLower(p.ExternalIDs.DOI),
		CitationCount: p.CitationCount,
		OpenAccess:    p.IsOpenAccess,
	}
	if id, err := norm.NormalizeArxivID(p.ExternalIDs.ArXiv); err == nil {
		cand.ArxivID = id
	}
	if len(p.PublicationTypes) > 0 {
		cand.PubType = strings.ToLower(p.PublicationTypes[0])
	}
	if p.OpenAccessPdf != nil {
		cand.PDFURL = p.OpenAccessPdf.URL
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			cand.Authors = append(cand.Authors, a.Name)
		}
	}
	return cand
}
