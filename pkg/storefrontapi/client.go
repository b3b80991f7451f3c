// Package storefrontapi is a typed JSON client for the remote storefront REST API.
package storefrontapi

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

const (
	DefaultTimeout = 10 * time.Second

	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"

	// maxErrorBody bounds how much of an upstream error payload is read.
	maxErrorBody = 64 << 10
)

// Observer records upstream call latency.
type Observer interface {
	ObserveUpstream(method, status string, d time.Duration)
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
}

// Client talks to the remote API. Safe for concurrent use.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	observer Observer
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("base url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = strings.TrimSuffix(u.RawPath, "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: u, http: httpClient, observer: opts.Observer}, nil
}

type tokenKey struct{}
type requestIDKey struct{}

// WithBearerToken attaches the admin token forwarded on every call made with ctx.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, strings.TrimSpace(token))
}

func BearerToken(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(tokenKey{}).(string)
	return v
}

// WithRequestID propagates the inbound request id downstream.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers http.Header
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	// path segments arrive escaped
	u.RawPath = c.baseURL.EscapedPath() + "/" + strings.TrimPrefix(path, "/")
	if unescaped, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = unescaped
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs the call and decodes a 2xx JSON body into out when non-nil.
func (c *Client) do(ctx context.Context, in call, out any) error {
	var reader io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode upstream request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.endpoint(in.path, in.query), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range in.headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if token := BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid := requestID(ctx); rid != "" {
		req.Header.Set(HeaderRequestID, rid)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(in.method, "error", start)
		return transportError(ctx, err)
	}
	defer resp.Body.Close()
	c.observe(in.method, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if stdErrors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream response")
	}
	return nil
}

func (c *Client) observe(method, status string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, status, time.Since(start))
}

func transportError(ctx context.Context, err error) error {
	if stdErrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "storefront api timed out")
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctxErr, "storefront api call cancelled")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storefront api unreachable")
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return stdErrors.As(err, &te) && te.Timeout()
}

type upstreamError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed upstreamError
	_ = json.Unmarshal(body, &parsed)
	msg := strings.TrimSpace(parsed.Message)
	if msg == "" {
		msg = strings.TrimSpace(parsed.Error)
	}

	code := codeForStatus(resp.StatusCode)
	if msg == "" {
		msg = pkgerrors.MetadataFor(code).PublicMessage
	}
	return pkgerrors.Wrap(code, fmt.Errorf("upstream status %d", resp.StatusCode), msg).
		WithDetails(map[string]any{"upstreamStatus": resp.StatusCode})
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return pkgerrors.CodeTimeout
	}
	if status >= http.StatusInternalServerError {
		return pkgerrors.CodeDependency
	}
	return pkgerrors.CodeValidation
}
