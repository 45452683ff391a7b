// Package transport is the request/response collaborator the portal core talks to.
// It knows nothing about complaints: it sends a method, a path, headers and a body,
// and reports non-2xx answers as *FetchError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options are the optional parts of a request.
type Options struct {
	Headers map[string]string
	// Body is JSON-encoded when not nil.
	Body any
}

// Response is a successful (2xx) answer.
type Response struct {
	OK     bool
	Status int
	JSON   json.RawMessage
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.JSON) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.JSON, v)
}

// Transport issues a single request.
type Transport interface {
	Request(ctx context.Context, method, path string, opts Options) (*Response, error)
}

// FetchError is a non-2xx answer or a transport failure (Status 0).
type FetchError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// TokenSource returns the current bearer token, "" when logged out.
type TokenSource func() string

// HTTPTransport is the net/http implementation, pre-configured with the base API URL.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
	Tokens  TokenSource
}

// NewHTTPTransport builds a transport with a sane client timeout.
func NewHTTPTransport(baseURL string, tokens TokenSource) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 15 * time.Second},
		Tokens:  tokens,
	}
}

// Request implements Transport.
func (t *HTTPTransport) Request(ctx context.Context, method, path string, opts Options) (*Response, error) {
	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &FetchError{Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.BaseURL+path, body)
	if err != nil {
		return nil, &FetchError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.Tokens != nil {
		if token := t.Tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &FetchError{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Err:     fmt.Errorf("%s", http.StatusText(resp.StatusCode)),
		}
	}

	return &Response{OK: true, Status: resp.StatusCode, JSON: json.RawMessage(raw)}, nil
}

// errorMessage pulls {"error": "..."} or {"message": "..."} out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
