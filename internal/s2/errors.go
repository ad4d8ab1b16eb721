package s2

import "errors"

// Common errors returned by the Semantic Scholar client.
var (
	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Semantic Scholar")

	// ErrAPIError indicates a non-success API response.
	ErrAPIError = errors.New("Semantic Scholar API error")

	// ErrInvalidResponse indicates an unexpected API response body.
	ErrInvalidResponse = errors.New("invalid response from Semantic Scholar")
)
