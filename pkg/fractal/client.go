package fractal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/httputil"
	"github.com/fractal-global/fractal-go/pkg/observability"
)

// API servers.
const (
	// ProductionServer is the live API endpoint.
	ProductionServer = "https://api.fractal.global/"

	// DevelopmentServer is the sandbox endpoint for testing.
	DevelopmentServer = "https://dev.fractal.global/"
)

// SecretLen is the byte length of a decoded application secret.
const SecretLen = 20

// apiVersion is appended to the server URL for all requests.
const apiVersion = "v1/"

const defaultTimeout = 30 * time.Second

// Client talks to the Fractal Global Credits REST API.
//
// The zero value is not usable; construct clients with [New], [NewDev],
// or [NewWithBaseURL]. A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string // always ends in "v1/"
	cache      *httputil.Cache
	retries    bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCache enables response caching for idempotent reads.
func WithCache(cache *httputil.Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithoutRetry disables automatic retries of transient GET failures.
func WithoutRetry() Option {
	return func(c *Client) { c.retries = false }
}

// New returns a client for the production server.
func New(opts ...Option) *Client {
	c, _ := NewWithBaseURL(ProductionServer, opts...)
	return c
}

// NewDev returns a client for the development server.
func NewDev(opts ...Option) *Client {
	c, _ := NewWithBaseURL(DevelopmentServer, opts...)
	return c
}

// NewWithBaseURL returns a client for an arbitrary server, e.g. a local
// test instance. The v1 API prefix is appended automatically.
func NewWithBaseURL(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apierrors.New(apierrors.ErrCodeInvalidInput, "invalid server URL: %q", rawURL)
	}

	base := u.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    base + apiVersion,
		retries:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the versioned API root the client sends requests to.
func (c *Client) BaseURL() string { return c.baseURL }

// authFunc attaches credentials to an outgoing request.
type authFunc func(*http.Request)

func basicAuth(id, secret string) authFunc {
	return func(req *http.Request) { req.SetBasicAuth(id, secret) }
}

func bearerAuth(token *AccessToken) authFunc {
	return func(req *http.Request) { req.Header.Set("Authorization", token.Bearer()) }
}

func noAuth(*http.Request) {}

// authorize verifies locally that token is usable for an operation
// requiring any one of the given scopes. No request is sent when it
// fails: expired tokens surface TOKEN_EXPIRED and missing scopes
// FORBIDDEN, mirroring what the server would answer.
func (c *Client) authorize(ctx context.Context, operation string, token *AccessToken, scopes ...Scope) error {
	if token == nil {
		return apierrors.New(apierrors.ErrCodeUnauthorized, "%s requires an access token", operation)
	}
	if token.Expired() {
		observability.Auth().OnTokenExpired(ctx, token.AppID())
		return apierrors.New(apierrors.ErrCodeTokenExpired, "access token expired, request a new one")
	}
	for _, s := range scopes {
		if token.HasScope(s) {
			return nil
		}
	}
	observability.Auth().OnAuthRefused(ctx, operation)
	return apierrors.New(apierrors.ErrCodeForbidden, "token lacks a scope permitting %s", operation)
}

// send performs one API request and returns the response body on
// HTTP 200. Transient failures (network errors, 5xx) on GET requests
// are retried with exponential backoff unless disabled.
func (c *Client) send(ctx context.Context, method, path string, auth authFunc, contentType string, body []byte) ([]byte, error) {
	attempt := func() ([]byte, error) {
		return c.sendOnce(ctx, method, path, auth, contentType, body)
	}

	if !c.retries || method != http.MethodGet {
		return attempt()
	}

	var out []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		out, err = attempt()
		return err
	})
	return out, err
}

func (c *Client) sendOnce(ctx context.Context, method, path string, auth authFunc, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrCodeInternal, err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	auth(req)

	observability.HTTP().OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, apierrors.Wrap(apierrors.ErrCodeTimeout, err, "%s %s", method, path)
		}
		return nil, &httputil.RetryableError{
			Err: apierrors.Wrap(apierrors.ErrCodeNetwork, err, "%s %s", method, path),
		}
	}
	defer resp.Body.Close()

	observability.HTTP().OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{
			Err: apierrors.Wrap(apierrors.ErrCodeNetwork, err, "read response of %s %s", method, path),
		}
	}

	if err := c.checkStatus(ctx, resp, path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// checkStatus maps a non-200 response to a structured error.
//
// The API uses 202 Accepted to report an application-level rejection:
// the request was well-formed but the operation was refused, with the
// reason carried in the body's message field.
func (c *Client) checkStatus(ctx context.Context, resp *http.Response, path string, body []byte) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil

	case http.StatusAccepted:
		return apierrors.New(apierrors.ErrCodeRejected, "%s", rejectionMessage(body))

	case http.StatusBadRequest:
		return apierrors.New(apierrors.ErrCodeBadRequest, "%s", rejectionMessage(body))

	case http.StatusUnauthorized:
		observability.Auth().OnAuthRefused(ctx, path)
		return apierrors.New(apierrors.ErrCodeUnauthorized, "invalid or missing credentials")

	case http.StatusForbidden:
		observability.Auth().OnAuthRefused(ctx, path)
		if msg := bodyMessage(body); msg != "" {
			return apierrors.New(apierrors.ErrCodeForbidden, "%s", msg)
		}
		return apierrors.New(apierrors.ErrCodeForbidden, "insufficient permissions for %s", path)

	case http.StatusNotFound:
		if msg := bodyMessage(body); msg != "" {
			return apierrors.New(apierrors.ErrCodeNotFound, "%s", msg)
		}
		return apierrors.New(apierrors.ErrCodeNotFound, "resource not found: %s", path)

	case http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return apierrors.Wrap(apierrors.ErrCodeRateLimited,
			&apierrors.RateLimitedError{RetryAfter: retryAfter, Message: rejectionMessage(body)},
			"request rate limit exceeded")

	default:
		err := apierrors.New(apierrors.ErrCodeServer, "server returned %s for %s", resp.Status, path)
		if resp.StatusCode >= 500 {
			return &httputil.RetryableError{Err: err}
		}
		return err
	}
}

// bodyMessage extracts the API's message from a response body, falling
// back to the raw body when it is not the usual JSON shape. Returns ""
// when the body carries nothing usable.
func bodyMessage(body []byte) string {
	var msg responseMessage
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return msg.Message
	}
	return strings.TrimSpace(string(body))
}

func rejectionMessage(body []byte) string {
	if msg := bodyMessage(body); msg != "" {
		return msg
	}
	return "request rejected"
}

// getJSON performs a GET and decodes the response into out.
// Pass nil out to discard the body.
func (c *Client) getJSON(ctx context.Context, path string, auth authFunc, out any) error {
	data, err := c.send(ctx, http.MethodGet, path, auth, "", nil)
	if err != nil {
		return err
	}
	return decodeBody(data, path, out)
}

// postJSON performs a POST with a JSON body and decodes the response
// into out. Pass nil out to discard the body.
func (c *Client) postJSON(ctx context.Context, path string, auth authFunc, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apierrors.Wrap(apierrors.ErrCodeInternal, err, "encode request for %s", path)
	}
	data, err := c.send(ctx, http.MethodPost, path, auth, "application/json", body)
	if err != nil {
		return err
	}
	return decodeBody(data, path, out)
}

// postForm performs a POST with a URL-encoded form body and decodes the
// response into out.
func (c *Client) postForm(ctx context.Context, path string, auth authFunc, form url.Values, out any) error {
	data, err := c.send(ctx, http.MethodPost, path, auth, "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return err
	}
	return decodeBody(data, path, out)
}

// delete performs a DELETE, discarding the response body.
func (c *Client) delete(ctx context.Context, path string, auth authFunc) error {
	_, err := c.send(ctx, http.MethodDelete, path, auth, "", nil)
	return err
}

func decodeBody(data []byte, path string, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apierrors.Wrap(apierrors.ErrCodeServer, err, "decode response of %s", path)
	}
	return nil
}

// cachedGet serves a GET from the response cache when one is configured,
// falling back to the network on a miss or stale entry. keyType doubles
// as the cache namespace and the label reported to cache hooks.
func (c *Client) cachedGet(ctx context.Context, keyType, key, path string, auth authFunc, out any) error {
	if c.cache == nil {
		return c.getJSON(ctx, path, auth, out)
	}

	ns := c.cache.Namespace(keyType + ":")
	if hit, err := ns.Get(key, out); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return nil
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	if err := c.getJSON(ctx, path, auth, out); err != nil {
		return err
	}
	if err := ns.Set(key, out); err == nil {
		if data, err := json.Marshal(out); err == nil {
			observability.Cache().OnCacheSet(ctx, keyType, len(data))
		}
	}
	return nil
}
