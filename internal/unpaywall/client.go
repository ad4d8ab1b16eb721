// Package unpaywall is a client for the Unpaywall API, used to locate
// legal open-access PDF copies by DOI. Unpaywall requires a contact
// email on every request.
package unpaywall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// BaseURL is the Unpaywall API base URL.
	BaseURL = "https://api.unpaywall.org/v2"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second
)

// ErrNetworkError indicates a network connectivity issue.
var ErrNetworkError = errors.New("network error communicating with Unpaywall")

// Client queries Unpaywall for open-access locations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
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

// NewClient creates an Unpaywall client. email is the operator contact
// address Unpaywall requires.
func NewClient(email string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		email:      email,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PDFURL returns the best open-access PDF URL for a normalized DOI, or
// "" when the work is unknown to Unpaywall or not open access.
func (c *Client) PDFURL(ctx context.Context, doi string) (string, error) {
	q := url.Values{}
	q.Set("email", c.email)
	u := c.baseURL + "/" + url.PathEscape(doi) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unpaywall: status %d", resp.StatusCode)
	}

	var body struct {
		IsOA           bool `json:"is_oa"`
		BestOALocation *struct {
			URLForPDF string `json:"url_for_pdf"`
		} `json:"best_oa_location"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("unpaywall: decoding response: %w", err)
	}

	if !body.IsOA || body.BestOALocation == nil {
		return "", nil
	}
	return body.BestOALocation.URLForPDF, nil
}
