// Package apiclient is the outbound JSON API client. Every request carries the
// current session token, read from a ports.TokenSource at send time.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/mmk-routeguard/internal/ports"
)

const (
	// DefaultTimeout bounds every request when Config.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 64 << 10
)

// Config controls the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Tokens supplies the bearer token; nil sends no Authorization header.
	Tokens ports.TokenSource
	Logger *slog.Logger
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// Client sends JSON requests relative to a base URL.
type Client struct {
	base   *url.URL
	hc     *http.Client
	logger *slog.Logger
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// New builds a client. BaseURL must be absolute.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("api base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("api base url %q must be absolute", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if cfg.Tokens != nil {
		rt = &bearerTransport{base: rt, tokens: cfg.Tokens}
	}

	return &Client{
		base:   base,
		hc:     &http.Client{Timeout: timeout, Transport: rt},
		logger: logger.With("component", "api_client"),
	}, nil
}

// GetJSON issues a GET and decodes the response into out (when non-nil).
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON encodes in as the request body and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Do sends a request with an optional JSON body.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	target, err := c.resolve(path)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "api request failed", "method", method, "url", target, "error", err)
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.DebugContext(ctx, "close response body failed", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(ctx, req, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", target, err)
	}
	return nil
}

// resolve joins path onto the base URL, keeping any base path prefix.
func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse request path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("request path %q must be relative", path)
	}
	return c.base.ResolveReference(ref).String(), nil
}

func (c *Client) statusError(ctx context.Context, req *http.Request, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
	}

	attrs := []any{"method", se.Method, "url", se.URL, "status", se.StatusCode}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.logger.WarnContext(ctx, "api rejected credentials; session must be re-established", attrs...)
	case http.StatusForbidden:
		c.logger.WarnContext(ctx, "api denied access for current role", attrs...)
	case http.StatusNotFound:
		c.logger.WarnContext(ctx, "api resource not found", attrs...)
	case http.StatusInternalServerError:
		c.logger.ErrorContext(ctx, "api internal server error", attrs...)
	default:
		c.logger.ErrorContext(ctx, "api returned unexpected status", attrs...)
	}
	return se
}

// bearerTransport attaches "Authorization: Bearer <token>" when the source
// yields a non-empty token.
type bearerTransport struct {
	base   http.RoundTripper
	tokens ports.TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("resolve bearer token: %w", err)
	}
	if token == "" {
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(out)
}
