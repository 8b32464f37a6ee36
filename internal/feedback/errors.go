package feedback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/algomentor/internal/types"
)

// RateLimitedError means the text-generation service refused the call for
// quota reasons. It is never retried.
type RateLimitedError struct {
	Cause error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("generation rate limited: %v", e.Cause)
}

func (e *RateLimitedError) Unwrap() error {
	return e.Cause
}

// GenerationError represents any other failure of the generation call
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response that is not a JSON document
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a response that does not match the report schema
type ValidationError struct {
	Fields []string
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("feedback failed schema validation at %s", strings.Join(e.Fields, ", "))
	}
	return "feedback failed schema validation"
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// User-facing messages for failed generation.
const (
	RateLimitedMessage = "The mentor is getting too many requests right now. Slow down and try again in a minute."
	FailedMessage      = "Feedback could not be generated right now. Please try again later."
)

// AsFailure converts a generation error into the object shown to users.
func AsFailure(err error) types.FeedbackFailure {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return types.FeedbackFailure{Error: types.FeedbackRateLimited, Message: RateLimitedMessage}
	}
	return types.FeedbackFailure{Error: types.FeedbackFailed, Message: FailedMessage}
}

// IsRateLimited reports whether err came from a rate-limited generation call.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
