package client

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// DefaultErrorMessage is used when an error response carries no message
	DefaultErrorMessage = "error communicating with the server"
	// NetworkErrorMessage is used when no response was received at all
	NetworkErrorMessage = "could not reach the server"
)

// APIError is the single error shape of the pipeline. Status is zero when the
// request never got a response.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AuthDenied reports whether the server rejected the credential or the role
func (e *APIError) AuthDenied() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the user facing message of err
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
