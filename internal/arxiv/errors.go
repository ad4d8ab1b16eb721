package arxiv

import "errors"

// Common errors returned by the arXiv client.
var (
	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with arXiv")

	// ErrAPIError indicates a non-success API response.
	ErrAPIError = errors.New("arXiv API error")

	// ErrInvalidResponse indicates an unexpected API response body.
	ErrInvalidResponse = errors.New("invalid response from arXiv")
)
