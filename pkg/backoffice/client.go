// Package backoffice talks to the tenant-scoped retail backoffice web
// application: login, register deactivation and product deletion.
package backoffice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

// bodyPreviewLen bounds response bodies quoted in errors and logs.
const bodyPreviewLen = 300

// RequestObserver is notified after every HTTP exchange.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, elapsed time.Duration)
}

// Options configure a Client.
type Options struct {
	Timeout time.Duration

	// AllowRedirectLogin treats a 301/302 login response as success.
	AllowRedirectLogin bool

	Observer RequestObserver

	// HTTPClient overrides the underlying client, e.g. httptest's.
	HTTPClient *http.Client
}

// Client issues backoffice requests. Redirects are never followed so that
// login redirects stay observable.
type Client struct {
	http               *http.Client
	allowRedirectLogin bool
	observer           RequestObserver
}

// NewClient creates a client with the given options.
func NewClient(opts Options) *Client {
	var hc http.Client
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		http:               &hc,
		allowRedirectLogin: opts.AllowRedirectLogin,
		observer:           opts.Observer,
	}
}

// response is a fully read HTTP response.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) preview() string {
	if len(r.body) == 0 {
		return "empty"
	}
	return core.Truncate(string(r.body), bodyPreviewLen)
}

// request sends one request and reads the whole body. endpoint is a short
// label for logs and metrics.
func (c *Client) request(ctx context.Context, method, rawURL, endpoint string, header http.Header, body io.Reader) (*response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}

	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("%s %s [%v] ERROR: %v", method, path, elapsed, err)
		c.observe(endpoint, 0, elapsed)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, 0, elapsed)
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.Debug("%s %s [%v] %d", method, path, elapsed, resp.StatusCode)
	c.observe(endpoint, resp.StatusCode, elapsed)

	return &response{
		status: resp.StatusCode,
		header: resp.Header,
		body:   respBody,
	}, nil
}

func (c *Client) observe(endpoint string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, status, elapsed)
	}
}

func jsonHeaders() http.Header {
	return http.Header{
		"Accept":       {"application/json"},
		"Content-Type": {"application/json"},
	}
}

func formHeaders() http.Header {
	return http.Header{
		"Content-Type": {"application/x-www-form-urlencoded"},
	}
}
