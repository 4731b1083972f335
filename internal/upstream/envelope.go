package upstream

import (
	"encoding/json"
	"fmt"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
)

// statusEnvelope is the response shape used by the user-facing
// endpoints: {"status": "success"|"error", "error": {...}, "data": ...}.
type statusEnvelope struct {
	Status string `json:"status"`
	Error  *struct {
		Msg string `json:"msg"`
		Loc string `json:"loc"`
	} `json:"error"`
	Data json.RawMessage `json:"data"`
}

// msgEnvelope is the response shape used by the project, integration,
// sync and dashboard endpoints: {"msg": "success", "data": ...}. Any
// msg other than the literal "success" signals failure.
type msgEnvelope struct {
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// decodeErrorBody extracts an *APIError from a non-2xx response body.
// It tries the status envelope first, then the message envelope, and
// falls back to a bare APIError carrying only the HTTP status when the
// body matches neither shape.
func decodeErrorBody(raw []byte, statusCode int) *APIError {
	var env statusEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Msg != "" {
		return &APIError{Msg: env.Error.Msg, Loc: env.Error.Loc, StatusCode: statusCode}
	}

	var mEnv msgEnvelope
	if err := json.Unmarshal(raw, &mEnv); err == nil && mEnv.Msg != "" && mEnv.Msg != "success" {
		return &APIError{Msg: mEnv.Msg, StatusCode: statusCode}
	}

	return &APIError{StatusCode: statusCode}
}

// decodeStatus unmarshals a status-envelope body into out. A body with
// status != "success" becomes an *APIError even when the HTTP status
// was 2xx. Pass a nil out for responses whose data is irrelevant.
func decodeStatus(raw []byte, out any) error {
	var env statusEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if env.Status != "success" {
		apiErr := &APIError{}
		if env.Error != nil {
			apiErr.Msg = env.Error.Msg
			apiErr.Loc = env.Error.Loc
		}
		return apiErr
	}
	if out == nil || env.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// decodeMsg unmarshals a message-envelope body into out. Any msg other
// than "success" is treated as a failure and surfaced as an *APIError
// carrying that msg.
func decodeMsg(raw []byte, out any) error {
	var env msgEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if env.Msg != "success" {
		return &APIError{Msg: env.Msg}
	}
	if out == nil || env.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// decodePaginated unmarshals a message-envelope body whose data field
// is a paginated list, then checks the list's internal consistency.
func decodePaginated[T any](raw []byte) (*models.Paginated[T], error) {
	var page models.Paginated[T]
	if err := decodeMsg(raw, &page); err != nil {
		return nil, err
	}
	if err := page.Validate(); err != nil {
		return nil, fmt.Errorf("inconsistent page from upstream: %w", err)
	}
	return &page, nil
}
