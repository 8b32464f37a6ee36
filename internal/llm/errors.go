package llm

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrRateLimited is returned when the provider rejects a call for quota or
// request-rate reasons. Callers surface it to users instead of retrying.
var ErrRateLimited = errors.New("llm: rate limited")

// ErrEmptyResponse is returned when the provider answers without usable text.
var ErrEmptyResponse = errors.New("llm: empty response")

// rateLimitMarkers are substrings providers use when the status code is lost.
var rateLimitMarkers = []string{"429", "resource_exhausted", "resource exhausted", "quota", "rate limit"}

// IsRateLimited reports whether err signals a provider rate limit.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// rateLimitError keeps the provider error while matching ErrRateLimited.
type rateLimitError struct {
	cause error
}

func (e *rateLimitError) Error() string {
	return ErrRateLimited.Error() + ": " + e.cause.Error()
}

func (e *rateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

func (e *rateLimitError) Unwrap() error {
	return e.cause
}

// classify wraps provider errors so rate limits match ErrRateLimited.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsRateLimited(err) {
		return &rateLimitError{cause: err}
	}
	return err
}
