package upstream

import (
	"errors"
)

// FallbackErrorMessage is returned by ErrorMessage when no usable
// message can be extracted from an error.
const FallbackErrorMessage = "An unexpected error occurred"

// APIError is a business error reported by the platform API inside a
// valid HTTP response. Both envelope conventions decode into this one
// type, so callers never branch on response shape.
type APIError struct {
	Msg        string // Human-readable message from the platform
	Loc        string // Field location for validation errors, if any
	StatusCode int    // HTTP status, 0 when the error came from a 2xx envelope
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return FallbackErrorMessage
}

// IsAPIError reports whether err is (or wraps) a platform APIError, as
// opposed to a transport failure or a console-local error.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsUnauthorized reports whether err is a platform rejection of the
// bearer token. The session middleware uses this to force a local
// sign-out instead of surfacing the message.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

// ErrorMessage maps any error from an upstream call to a single
// display string. Precedence:
//
//  1. a platform error envelope {status: "error", error: {msg, loc}} -> error.msg
//  2. a platform message envelope {msg, data: null} with msg != "success" -> msg
//  3. any other error's own message
//  4. a fixed fallback string
//
// Shapes 1 and 2 are folded into *APIError at decode time, so here
// they are one case. Total over its input domain: never panics, never
// returns an empty string. The dual-shape handling exists because the
// platform API uses two different envelope conventions depending on
// the endpoint.
func ErrorMessage(err error) string {
	if err == nil {
		return FallbackErrorMessage
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}

	if msg := err.Error(); msg != "" {
		return msg
	}

	return FallbackErrorMessage
}
