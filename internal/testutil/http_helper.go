package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MakeRequest creates an HTTP request for testing
func MakeRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

// ParseJSONResponse parses a JSON response into the provided interface
func ParseJSONResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse JSON response: %v\nBody: %s", err, resp.Body.String())
	}
}

// AssertStatusCode checks if the response has the expected status code
func AssertStatusCode(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if resp.Code != expected {
		t.Errorf("Expected status code %d, got %d\nBody: %s",
			expected, resp.Code, resp.Body.String())
	}
}

// AssertCookie checks if a cookie exists and optionally validates its value
func AssertCookie(t *testing.T, resp *httptest.ResponseRecorder, name string, expectedValue ...string) *http.Cookie {
	t.Helper()

	cookies := resp.Result().Cookies()
	for _, cookie := range cookies {
		if cookie.Name == name {
			if len(expectedValue) > 0 && cookie.Value != expectedValue[0] {
				t.Errorf("Cookie %s: expected value '%s', got '%s'",
					name, expectedValue[0], cookie.Value)
			}
			return cookie
		}
	}

	t.Errorf("Cookie %s not found in response", name)
	return nil
}

// StubPlatform is a scripted stand-in for the platform API. Register
// handlers per "METHOD /path" before pointing an upstream.Client at
// URL(); unregistered routes fail the test so a surprise upstream call
// never passes silently.
type StubPlatform struct {
	t        *testing.T
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
}

// NewStubPlatform starts a stub platform server that is shut down with
// the test.
func NewStubPlatform(t *testing.T) *StubPlatform {
	t.Helper()

	stub := &StubPlatform{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
	}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		handler, ok := stub.handlers[key]
		if !ok {
			t.Errorf("Unexpected upstream call: %s", key)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(stub.server.Close)

	return stub
}

// URL returns the stub's base URL.
func (s *StubPlatform) URL() string {
	return s.server.URL
}

// Handle registers a handler for "METHOD /path".
func (s *StubPlatform) Handle(methodAndPath string, handler http.HandlerFunc) {
	s.handlers[methodAndPath] = handler
}

// HandleJSON registers a handler that responds with a fixed status and
// JSON body.
func (s *StubPlatform) HandleJSON(methodAndPath string, status int, body string) {
	s.Handle(methodAndPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}
