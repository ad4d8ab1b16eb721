// Package crossref is a rate-limited client for the CrossRef REST API.
// It serves as the identifier-lookup source for DOIs and as the primary
// title-search source.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

const (
	// BaseURL is the CrossRef REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit is the default request rate in requests per second.
	RateLimit = 5.0

	// SourceName identifies CrossRef in match records and attempt logs.
	SourceName = "crossref"

	// DefaultSearchRows is the number of candidates requested per title
	// search.
	DefaultSearchRows = 5
)

// Client is a rate-limited HTTP client for the CrossRef REST API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
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

// WithMailto sets the contact email sent to CrossRef's polite pool.
func WithMailto(email string) Option {
	return func(c *Client) {
		c.mailto = email
	}
}

// NewClient creates a new CrossRef client.
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

// LookupByID fetches the work registered under a normalized DOI. A 404
// response means the DOI is unregistered and yields (nil, nil).
func (c *Client) LookupByID(ctx context.Context, doi string) (*citation.MatchCandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + "/works/" + url.PathEscape(doi)
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var body struct {
		Message work `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding work: %v", ErrInvalidResponse, err)
	}

	cand := body.Message.toCandidate()
	return &cand, nil
}

// SearchByTitle queries CrossRef's relevance search with a free-text
// title. It returns an empty slice, never nil with a nil error, when the
// search finds nothing.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]citation.MatchCandidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("query.title", title)
	q.Set("rows", strconv.Itoa(DefaultSearchRows))
	resp, err := c.get(ctx, c.baseURL+"/works?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var body struct {
		Message struct {
			Items []work `json:"items"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding search results: %v", ErrInvalidResponse, err)
	}

	candidates := make([]citation.MatchCandidate, 0, len(body.Message.Items))
	for _, w := range body.Message.Items {
		candidates = append(candidates, w.toCandidate())
	}
	return candidates, nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.mailto != "" {
		req.Header.Set("User-Agent", "citeverify (mailto:"+c.mailto+")")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	return resp, nil
}

// work is the subset of a CrossRef work record the verifier consumes.
type work struct {
	DOI             string     `json:"DOI"`
	Type            string     `json:"type"`
	Publisher       string     `json:"publisher"`
	Title           []string   `json:"title"`
	ContainerTitle  []string   `json:"container-title"`
	Author          []author   `json:"author"`
	PublishedPrint  *dateParts `json:"published-print"`
	PublishedOnline *dateParts `json:"published-online"`
	Created         *dateParts `json:"created"`
	ReferencedBy    int        `json:"is-referenced-by-count"`
	License         []license  `json:"license"`
}

type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type dateParts struct {
	DateParts [][]int `json:"date-parts"`
}

type license struct {
	URL string `json:"URL"`
}

func (d *dateParts) year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

func (w work) toCandidate() citation.MatchCandidate {
	cand := citation.MatchCandidate{
		Source:        SourceName,
		DOI:           strings.ToLower(w.DOI),
		PubType:       w.Type,
		Publisher:     w.Publisher,
		CitationCount: w.ReferencedBy,
	}
	if len(w.Title) > 0 {
		cand.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		cand.Venue = w.ContainerTitle[0]
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			cand.Authors = append(cand.Authors, name)
		}
	}
	// Publication year preference: print, then online, then deposit date.
	for _, d := range []*dateParts{w.PublishedPrint, w.PublishedOnline, w.Created} {
		if y := d.year(); y != 0 {
			cand.Year = y
			break
		}
	}
	for _, l := range w.License {
		if strings.Contains(l.URL, "creativecommons.org") {
			cand.OpenAccess = true
			break
		}
	}
	return cand
}
