package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/middleware"
)

// maxBodyBytes caps how much of a backend reply is buffered.
const maxBodyBytes = 4 << 20

// ClientConfig holds configuration for the gateway client
type ClientConfig struct {
	// ReadTimeout is used for GET requests; zero leaves the transport default
	ReadTimeout time.Duration
	// WriteTimeout is used for POST, PUT, PATCH, DELETE requests
	WriteTimeout time.Duration
	// Transport defaults to http.DefaultTransport
	Transport http.RoundTripper
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Client talks to the tutoring backend on behalf of one browser session.
// Its cookie jar holds the backend's credential cookies, so every request is
// credentialed the same way the browser's would be.
type Client struct {
	base       *url.URL
	jar        http.CookieJar
	baseClient *http.Client
	config     ClientConfig
}

// Response is a completed backend reply with a 2xx status.
type Response struct {
	StatusCode int
	Body       []byte
}

func New(baseURL string, config ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url must be http(s): %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		base: base,
		jar:  jar,
		baseClient: &http.Client{
			Jar:       jar,
			Transport: &middleware.TracingTransport{Base: config.Transport},
			// No global timeout - per-request timeouts come from the method
			Timeout: 0,
		},
		config: config,
	}, nil
}

func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Cookies returns the backend credential cookies currently held for this
// session.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// ClearCookies drops every credential cookie held for the backend.
func (c *Client) ClearCookies() {
	expired := make([]*http.Cookie, 0)
	for _, ck := range c.jar.Cookies(c.base) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.base, expired)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	timeout := c.config.ReadTimeout
	if isWriteMethod(method) {
		timeout = c.config.WriteTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderXRequestID, reqID)
	}

	log := logger.Ctx(ctx).With().
		Str("method", method).
		Str("path", path).
		Logger()

	start := time.Now()
	resp, err := c.baseClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Warn().Err(err).Dur("duration", duration).Msg("backend_request_failed")
		return nil, mapError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Warn().Err(err).Dur("duration", duration).Msg("backend_body_read_failed")
		return nil, mapError(err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("backend_request_completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRemoteError(resp.StatusCode, raw)
	}
	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

// mapError converts low-level errors to gateway sentinels
func mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	// Connection refused, DNS errors, etc.
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// isWriteMethod returns true for HTTP methods that modify state
func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
