package cliniko

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrParse is wrapped by errors returned when a successful response body is
// not valid JSON.
var ErrParse = errors.New("invalid JSON in cliniko response")

// ErrInvalidID is returned when a caller supplies a non-positive identifier.
var ErrInvalidID = errors.New("cliniko identifiers must be positive integers")

// APIError is a non-2xx response from the Cliniko API.
type APIError struct {
	StatusCode int
	Body       string

	// Truncated is set when the body exceeded the size kept on the error.
	Truncated bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Cliniko API error (%d): %s", e.StatusCode, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsRateLimited reports whether err is an HTTP 429 from the API.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsNotFound reports whether err is an HTTP 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
