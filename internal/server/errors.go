// Package server provides the HTTP REST API for AlgoMentor.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/algomentor/internal/dashboard"
	"github.com/jonathan/algomentor/internal/feedback"
)

// Account errors. Services wrap them with detail; handlers match with
// errors.Is.
var (
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError rejects one request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var errorStatus = []struct {
	target error
	status int
}{
	{ErrEmailRegistered, http.StatusConflict},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrUserNotFound, http.StatusNotFound},
	{dashboard.ErrNoPlatforms, http.StatusUnprocessableEntity},
}

// HTTPStatus maps an error to its response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	var verr *ValidationError
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case feedback.IsRateLimited(err):
		return http.StatusTooManyRequests
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}
