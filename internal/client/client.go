// Package client talks to the storefront API the way the web shop does: cookie
// sessions, one transparent token refresh per request, and the same display-time
// guards the server enforces.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/auth"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

const (
	adminAccessCookie  = "admin_access_token"
	adminRefreshCookie = "admin_refresh_token"
	userAccessCookie   = "user_access_token"
	userRefreshCookie  = "user_refresh_token"

	msgTokenExpired = "Token is invalid or expired"
	msgUserBlocked  = "User is blocked"
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid token"

	AdminLoginRoute = "/admin/login"
	UserLoginRoute  = "/login"
)

var (
	// LoginTimeout bounds a login round trip.
	LoginTimeout = 10 * time.Second
	// RefreshTimeout bounds a shared token refresh. It does not follow the
	// caller's cancellation since other requests may be waiting on it.
	RefreshTimeout = 10 * time.Second
)

// APIError is a failed request the caller should surface as-is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// SessionError means the session is gone. Cookies are already cleared;
// the caller should send the user to LoginRoute.
type SessionError struct {
	Status     int
	Message    string
	LoginRoute string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session ended (%d): %s", e.Status, e.Message)
}

// Session is the signed-in identity read from the access cookie.
type Session struct {
	UserID    int64
	Role      domain.Role
	ExpiresAt time.Time
}

type Client struct {
	base string
	url  *url.URL
	jar  http.CookieJar
	http *http.Client
	log  *slog.Logger

	refreshGroup singleflight.Group

	mu      sync.Mutex
	session *Session
}

func New(baseURL string, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		base: u.String(),
		url:  u,
		jar:  jar,
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
		log:  log,
	}, nil
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.url) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// accessToken prefers the admin session when both exist.
func (c *Client) accessToken() string {
	if t := c.cookie(adminAccessCookie); t != "" {
		return t
	}
	return c.cookie(userAccessCookie)
}

// roleFor names the session a route is guarded by; public routes return "".
func roleFor(path string) domain.Role {
	switch {
	case strings.HasPrefix(path, "/admin/"):
		return domain.RoleAdmin
	case strings.HasPrefix(path, "/user/"):
		return domain.RoleUser
	}
	return ""
}

func accessCookieOf(role domain.Role) string  { return string(role) + "_access_token" }
func refreshCookieOf(role domain.Role) string { return string(role) + "_refresh_token" }

// tokenFor is the access token the server checks on a route of role: the
// role's own cookie, otherwise the bearer header.
func (c *Client) tokenFor(role domain.Role) string {
	if role != "" {
		if t := c.cookie(accessCookieOf(role)); t != "" {
			return t
		}
	}
	return c.accessToken()
}

// refreshRole picks the session to rotate after a rejection on a route of role.
func (c *Client) refreshRole(role domain.Role) domain.Role {
	if role != "" && c.cookie(refreshCookieOf(role)) != "" {
		return role
	}
	for _, r := range []domain.Role{domain.RoleAdmin, domain.RoleUser} {
		if c.cookie(refreshCookieOf(r)) != "" {
			return r
		}
	}
	return ""
}

func (c *Client) loginRoute() string {
	if c.cookie(adminAccessCookie) != "" || c.cookie(adminRefreshCookie) != "" {
		return AdminLoginRoute
	}
	return UserLoginRoute
}

func (c *Client) clearCookies() {
	var expired []*http.Cookie
	for _, name := range []string{adminAccessCookie, adminRefreshCookie, userAccessCookie, userRefreshCookie} {
		expired = append(expired, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.url, expired)
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// Session decodes the current access cookie once and caches the result.
// The token signature is the server's business; here it only drives display.
func (c *Client) Session() (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, true
	}
	tok := c.accessToken()
	if tok == "" {
		return nil, false
	}
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, false
	}
	s := &Session{UserID: id, Role: claims.Role}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	c.session = s
	return s, true
}

func (c *Client) forgetSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func readMessage(resp *http.Response) string {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return http.StatusText(resp.StatusCode)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.accessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return c.http.Do(req)
}

// do sends one API call. A 401 for an expired token, or a missing access
// cookie while a refresh cookie remains, triggers one refresh and one retry;
// session-ending answers clear the cookies.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	role := roleFor(path)
	retried := false
	for {
		sent := c.tokenFor(role)
		resp, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if resp.StatusCode < 400 {
			defer resp.Body.Close()
			if out == nil || resp.StatusCode == http.StatusNoContent {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s %s: %w", method, path, err)
			}
			return nil
		}

		msg := readMessage(resp)
		resp.Body.Close()
		expired := resp.StatusCode == http.StatusUnauthorized && msg == msgTokenExpired
		missing := resp.StatusCode == http.StatusBadRequest && msg == msgNoToken && c.refreshRole(role) != ""
		switch {
		case (expired || missing) && !retried:
			retried = true
			if err := c.refreshAfter(ctx, role, sent); err != nil {
				return err
			}
			continue
		case resp.StatusCode == http.StatusUnauthorized && msg == msgUserBlocked,
			resp.StatusCode == http.StatusForbidden,
			resp.StatusCode == http.StatusBadRequest && (msg == msgNoToken || msg == msgInvalidToken):
			return c.endSession(resp.StatusCode, msg)
		default:
			return &APIError{Status: resp.StatusCode, Message: msg}
		}
	}
}

func (c *Client) endSession(status int, msg string) error {
	route := c.loginRoute()
	c.clearCookies()
	c.log.Info("session ended", "status", status, "message", msg, "login_route", route)
	return &SessionError{Status: status, Message: msg, LoginRoute: route}
}

// refreshAfter refreshes unless another request already replaced the token
// that was rejected. Concurrent callers share one refresh call per session,
// which outlives the cancellation of whichever caller started it.
func (c *Client) refreshAfter(ctx context.Context, role domain.Role, rejected string) error {
	if cur := c.tokenFor(role); cur != "" && cur != rejected {
		return nil
	}
	target := c.refreshRole(role)
	_, err, _ := c.refreshGroup.Do("refresh:"+string(target), func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RefreshTimeout)
		defer cancel()
		return nil, c.refresh(rctx, target)
	})
	return err
}

func (c *Client) refresh(ctx context.Context, role domain.Role) error {
	path := "/auth/refreshtoken"
	if role != "" {
		path += "?role=" + url.QueryEscape(string(role))
	}
	resp, err := c.send(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.endSession(resp.StatusCode, readMessage(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	c.forgetSession()
	c.log.Debug("access token refreshed", "role", role)
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) login(ctx context.Context, path, email, password string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, LoginTimeout)
	defer cancel()
	payload, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: readMessage(resp)}
	}
	var pair service.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	c.forgetSession()
	s, ok := c.Session()
	if !ok {
		return nil, errors.New("login: no access cookie in response")
	}
	return s, nil
}

// Login signs a customer in.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.login(ctx, "/auth/login", email, password)
}

// AdminLogin signs an admin in.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	return c.login(ctx, "/auth/admin/login", email, password)
}

// Logout revokes the sessions server-side and drops the local cookies.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, "/auth/logout", nil)
	c.clearCookies()
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: readMessage(resp)}
	}
	return nil
}
