// Package upstream implements the typed client for the DocOps
// platform REST API. All console reads and writes go through this
// package: it attaches the bearer token, serializes query parameters,
// decodes both of the platform's response envelope conventions at the
// transport boundary, and normalizes every failure into an APIError
// before any caller sees it.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Client is a configured request sender for the platform API. It is
// safe for concurrent use; the bearer token is supplied per call
// because each console session carries its own.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      utils.RetryConfig
}

// NewClient creates a platform API client. The base URL is the
// platform root (paths like /users/login are appended to it).
//
// Example:
//
//	client := upstream.NewClient(&http.Client{Timeout: cfg.Upstream.Timeout}, cfg.Upstream.BaseURL)
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		retry:      utils.UpstreamRetryConfig(),
	}
}

// do issues one request against the platform API and returns the raw
// response body for envelope decoding. Transport-level failures on GET
// requests are retried with backoff; writes are never retried because
// the platform does not guarantee idempotency for them.
//
// Non-2xx responses are decoded into an *APIError carrying the
// platform's own message when one is present.
func (c *Client) do(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = b
	}

	send := func() ([]byte, error) {
		var r io.Reader
		if payload != nil {
			r = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("upstream request failed: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read upstream response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := decodeErrorBody(raw, resp.StatusCode)
			log.Warn().
				Str("method", method).
				Str("path", path).
				Int("status", resp.StatusCode).
				Str("msg", apiErr.Msg).
				Msg("Upstream returned error")
			return nil, apiErr
		}

		return raw, nil
	}

	// Only reads are safe to repeat.
	if method == http.MethodGet {
		return utils.RetryWithResult(ctx, c.retry, func() ([]byte, error) {
			raw, err := send()
			if err != nil && IsAPIError(err) {
				// API-level errors are final answers, not transient faults.
				return nil, utils.Permanent(err)
			}
			return raw, err
		})
	}

	return send()
}

// get issues a GET and decodes the given envelope into out.
func (c *Client) get(ctx context.Context, path, token string, decode func([]byte) error) error {
	raw, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	return decode(raw)
}

// withQuery appends non-empty query values to a path.
func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}
