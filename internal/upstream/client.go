// Package upstream is the HTTP client for the storefront backend: the OTP
// issuing/verification endpoints, the authoritative server-side cart, and
// booking submission. Only the request/response contracts live here; the
// backend itself is an external collaborator.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the storefront backend. Timeouts are left to the
// underlying transport; no retries are attempted so a booking can never be
// submitted twice by this client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the backend at baseURL. When httpClient is nil a
// client with an otel-instrumented default transport is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// postJSON sends a JSON request and decodes the JSON response into out.
// Non-2xx responses become a *StatusError with a truncated body.
func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "%s: encode request", op)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "%s: create request", op)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, op, out)
}

// getJSON sends a GET with a bearer token and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, op, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "%s: create request", op)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: do request", op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       readBodyPrefix(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}
	return nil
}

// readBodyPrefix reads up to 512 bytes of an error body for diagnostics.
func readBodyPrefix(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return string(b)
}
