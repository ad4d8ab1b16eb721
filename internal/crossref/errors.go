package crossref

import "errors"

// Common errors returned by the CrossRef client.
var (
	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with CrossRef")

	// ErrAPIError indicates a non-success API response.
	ErrAPIError = errors.New("CrossRef API error")

	// ErrInvalidResponse indicates an unexpected API response body.
	ErrInvalidResponse = errors.New("invalid response from CrossRef")
)
