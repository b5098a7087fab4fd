package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

// Fixed messages the storefront client reacts to.
const (
	msgNoToken        = "No token provided"
	msgInvalidToken   = "Invalid token"
	msgTokenExpired   = "Token is invalid or expired"
	msgUserBlocked    = "User is blocked"
	msgSessionExpired = "Session expired, please login again"
	msgAccessDenied   = "Access denied"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error" example:"bad_request"`
	Message string `json:"message" example:"quantity must be between 1 and 5"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNotEnoughStock),
		errors.Is(err, service.ErrQuantityLimit),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserBlocked):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: errorCode(status), Message: message})
}

// writeError maps err to a status; internal errors are logged and not echoed.
func (s *Server) writeError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal server error"
	}
	abortWith(c, status, msg)
}

// bindError turns binding failures into a readable 400.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("%s is invalid (%s)", lowerFirst(fe.Field()), fe.Tag())
		if fe.Tag() == "required" {
			msg = fmt.Sprintf("%s is required", lowerFirst(fe.Field()))
		}
		abortWith(c, http.StatusBadRequest, msg)
		return
	}
	abortWith(c, http.StatusBadRequest, "invalid request body")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
