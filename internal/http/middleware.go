package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/auth"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

const (
	requestIDHeader = "X-Request-ID"
	principalKey    = "principal"
)

// RequestLogger logs one line per request and tags it with a request id.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", id,
		)
	}
}

func accessCookie(role domain.Role) string  { return string(role) + "_access_token" }
func refreshCookie(role domain.Role) string { return string(role) + "_refresh_token" }

// accessToken reads the role's cookie, then the bearer header.
func accessToken(c *gin.Context, role domain.Role) string {
	if v, err := c.Cookie(accessCookie(role)); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// requireRole authenticates the caller and checks the role.
func (s *Server) requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := accessToken(c, role)
		if tok == "" {
			abortWith(c, http.StatusBadRequest, msgNoToken)
			return
		}
		p, err := s.svc.Auth.Authenticate(c.Request.Context(), tok)
		switch {
		case errors.Is(err, auth.ErrTokenMalformed):
			abortWith(c, http.StatusBadRequest, msgInvalidToken)
			return
		case errors.Is(err, auth.ErrTokenInvalid):
			abortWith(c, http.StatusUnauthorized, msgTokenExpired)
			return
		case errors.Is(err, service.ErrUserBlocked):
			abortWith(c, http.StatusUnauthorized, msgUserBlocked)
			return
		case err != nil:
			s.writeError(c, err)
			return
		}
		if p.Role != role {
			abortWith(c, http.StatusForbidden, msgAccessDenied)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func principal(c *gin.Context) *service.Principal {
	return c.MustGet(principalKey).(*service.Principal)
}
