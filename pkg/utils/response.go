// Package utils provides common utility functions for HTTP response
// handling, request ID management, and cookie operations. It includes
// standardized response formats with automatic request ID injection
// for tracing.
package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// requestIDKey is the context key for request ID
const requestIDKey contextKey = "request_id"

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if the context is nil or no request ID is
// present.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context. Typically called by
// the logging middleware to inject a unique identifier per request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ErrorResponse represents a standard error response structure.
// Message carries the normalized upstream or validation error text;
// Error is the HTTP status text.
type ErrorResponse struct {
	Error     string `json:"error"`                // HTTP status text (e.g., "Bad Request")
	Message   string `json:"message,omitempty"`    // Normalized error message
	RequestID string `json:"request_id,omitempty"` // Request ID for tracing
}

// RespondWithError sends a JSON error response with automatic request
// ID extraction from the request context.
//
// Example:
//
//	if !sess.Authenticated() {
//	    utils.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
//	    return
//	}
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: GetRequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Err(err).
			Str("request_id", response.RequestID).
			Msg("Failed to encode error response")
	}
}

// RespondWithJSON sends a JSON response with the given status code and
// data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Msg("Failed to encode JSON response")
	}
}

// RespondWithMessage sends a simple message response with the given
// status code. Useful for endpoints that only need a status line.
//
// Example:
//
//	utils.RespondWithMessage(w, r, http.StatusOK, "Logged out successfully")
func RespondWithMessage(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := map[string]string{"message": message}
	if requestID := GetRequestID(r.Context()); requestID != "" {
		response["request_id"] = requestID
	}
	RespondWithJSON(w, r, statusCode, response)
}

// SetSessionCookie sets the console session cookie with appropriate
// security settings. In production the cookie is marked Secure (HTTPS
// only). The cookie is always HttpOnly and uses SameSite=Lax.
//
// Example:
//
//	utils.SetSessionCookie(w, cfg.Session.CookieName, sid, time.Now().Add(cfg.Session.Expiry), cfg.Server.IsProduction())
func SetSessionCookie(w http.ResponseWriter, name, value string, expires time.Time, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// ClearSessionCookie clears the console session cookie by setting
// MaxAge to -1, instructing the browser to delete it immediately.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
