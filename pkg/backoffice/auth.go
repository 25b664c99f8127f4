package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is an authenticated backoffice session. It can only be obtained
// from Login, so every authenticated request carries a real cookie.
type Session struct {
	client  *Client
	baseURL string
	cookie  string
}

// Cookie returns the Cookie header value captured at login.
func (s *Session) Cookie() string {
	return s.cookie
}

// CookieNames lists the cookie names without their values, for logs.
func (s *Session) CookieNames() []string {
	var names []string
	for _, part := range strings.Split(s.cookie, "; ") {
		if name, _, ok := strings.Cut(part, "="); ok {
			names = append(names, name)
		}
	}
	return names
}

// Login posts credentials to <baseURL>/login and captures the session cookies.
func (c *Client) Login(ctx context.Context, baseURL, email, password string) (*Session, error) {
	loginURL := joinURL(baseURL, "login")
	logger.Info("Attempting login to: %s", loginURL)
	logger.Info("Email: %s", email)

	payload, err := json.Marshal(loginRequest{Username: email, Password: password})
	if err != nil {
		return nil, core.ErrRequestFailure.WithMessage("encode login body").WithCause(err)
	}

	resp, err := c.request(ctx, http.MethodPost, loginURL, "login", jsonHeaders(), bytes.NewReader(payload))
	if err != nil {
		return nil, core.ErrRequestFailure.WithMessage("login request failed").WithCause(err)
	}

	logger.Info("Login response status: %d", resp.status)

	switch {
	case resp.status == http.StatusOK:
	case c.allowRedirectLogin && isRedirect(resp.status):
		location := resp.header.Get("Location")
		if location == "" {
			location = "not specified"
		}
		logger.Info("Login resulted in redirect (location: %s), treating as authenticated", location)
	default:
		return nil, core.ErrAuthenticationFailure.
			WithMessagef("login failed with status %d: %s", resp.status, resp.preview()).
			WithDetails(map[string]interface{}{"status": resp.status})
	}

	cookie := cookieHeader(resp.header.Values("Set-Cookie"))
	if cookie == "" {
		return nil, core.ErrAuthenticationFailure.WithMessage("no cookies received from login response")
	}

	s := &Session{client: c, baseURL: baseURL, cookie: cookie}
	logger.Info("Session cookies obtained: %s", strings.Join(s.CookieNames(), ", "))
	return s, nil
}

func isRedirect(status int) bool {
	return status == http.StatusMovedPermanently || status == http.StatusFound
}

// cookieHeader keeps only name=value of each Set-Cookie line and joins them
// into a single Cookie header value.
func cookieHeader(setCookies []string) string {
	var parts []string
	for _, sc := range setCookies {
		nv, _, _ := strings.Cut(sc, ";")
		nv = strings.TrimSpace(nv)
		if nv != "" {
			parts = append(parts, nv)
		}
	}
	return strings.Join(parts, "; ")
}

// request sends an authenticated request relative to the session base URL.
func (s *Session) request(ctx context.Context, method, path, endpoint string, header http.Header, body io.Reader) (*response, error) {
	if header == nil {
		header = http.Header{}
	}
	header.Set("Cookie", s.cookie)
	return s.client.request(ctx, method, joinURL(s.baseURL, path), endpoint, header, body)
}
