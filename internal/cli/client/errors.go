package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the "error" field of a structured JSON payload, if there was one
	Detail string
	// Message is Detail, the raw body, or the status text, in that order
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// TransportError means no response was received at all
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind classifies a request failure
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuth is a 401: bad credentials or an expired session
	KindAuth
	// KindAuthorization is a 403
	KindAuthorization
	// KindServer is any 5xx
	KindServer
	// KindTransport means no response was received
	KindTransport
	// KindValidation is any other 4xx, left to the caller
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindAuthorization:
		return "authorization"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// KindOf classifies err, looking through wrapped errors
func KindOf(err error) Kind {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized:
			return KindAuth
		case httpErr.StatusCode == http.StatusForbidden:
			return KindAuthorization
		case httpErr.StatusCode >= 500:
			return KindServer
		case httpErr.StatusCode >= 400:
			return KindValidation
		}
		return KindUnknown
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransport
	}

	return KindUnknown
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// ErrorMessage returns the backend's structured error message carried by err,
// or fallback when the failure had none.
func ErrorMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	return fallback
}

// isCanceled reports a transport failure caused by the caller giving up
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
