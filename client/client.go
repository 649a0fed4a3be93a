// Package client talks to a better-auth compatible authentication service over
// HTTP. It is the only place in the portal that knows the service's endpoints
// and wire format; callers get typed payloads, relayed cookies and rich errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	defaultBasePath = "/api/auth"
	defaultTimeout  = 10 * time.Second
	maxBodySize     = 1 << 20

	RequestIDHeader = "X-Request-ID"
)

// Logger is the subset of the portal logger the client uses.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the auth service location.
type Config struct {
	BaseURL  string
	BasePath string
	// Origin is sent as the Origin header; the service checks it against its
	// trusted origins list.
	Origin    string
	UserAgent string
	Timeout   time.Duration

	HTTPClient *http.Client
}

// Client is a typed auth service client.
type Client struct {
	base       *url.URL
	config     Config
	httpClient *http.Client
	logger     Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New validates the configuration and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, goerrors.New("auth service base URL is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid auth service base URL").
			WithCode(goerrors.CodeBadRequest)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, goerrors.New("auth service base URL must be absolute", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if cfg.BasePath == "" {
		cfg.BasePath = defaultBasePath
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			// cookies forwarded from the browser must never follow a redirect
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	c := &Client{
		base:       base,
		config:     cfg,
		httpClient: httpClient,
		logger:     nopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// BaseURL returns the configured service URL including the API prefix.
func (c *Client) BaseURL() string {
	return c.endpoint("")
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + "/" + strings.Trim(c.config.BasePath, "/") + path
}

func do[T any](ctx context.Context, c *Client, method, path string, creds Credentials, payload any) (*Response[T], error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode request payload")
		}
		body = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build auth service request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Origin != "" {
		req.Header.Set("Origin", c.config.Origin)
	}

	userAgent := creds.UserAgent
	if userAgent == "" {
		userAgent = c.config.UserAgent
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if creds.IP != "" {
		req.Header.Set("X-Forwarded-For", creds.IP)
	}
	for _, cookie := range creds.Cookies {
		if cookie != nil {
			req.AddCookie(cookie)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("auth service request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, transportError(err, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportError(err, path)
	}

	c.logger.Debug("auth service request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(started).String(),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, remoteError(resp.StatusCode, raw, path)
	}

	out := &Response[T]{
		Cookies:    resp.Cookies(),
		StatusCode: resp.StatusCode,
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out.Data); err != nil {
		return nil, decodeError(fmt.Errorf("decode %s: %w", path, err), path)
	}

	return out, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
