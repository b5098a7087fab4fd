package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

var roles = []domain.Role{domain.RoleAdmin, domain.RoleUser}

type signupReq struct {
	Name     string `json:"name" binding:"required,max=60"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone" binding:"omitempty,max=14"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func maxAge(until time.Time) int {
	if d := time.Until(until); d > 0 {
		return int(d.Seconds())
	}
	return -1
}

// setAuthCookies keeps the access cookie as long as the refresh session, so an
// expired access token still reaches the server and is answered with a 401.
func (s *Server) setAuthCookies(c *gin.Context, pair *service.TokenPair) {
	role := pair.User.Role
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie(role), pair.AccessToken, maxAge(pair.RefreshExpiresAt), "/", "", s.opts.CookieSecure, true)
	c.SetCookie(refreshCookie(role), pair.RefreshToken, maxAge(pair.RefreshExpiresAt), "/", "", s.opts.CookieSecure, true)
}

func (s *Server) clearAuthCookies(c *gin.Context, role domain.Role) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie(role), "", -1, "/", "", s.opts.CookieSecure, true)
	c.SetCookie(refreshCookie(role), "", -1, "/", "", s.opts.CookieSecure, true)
}

// @Summary Sign up
// @Tags auth
// @Accept json
// @Produce json
// @Param input body signupReq true "Account"
// @Success 201 {object} domain.User
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /auth/signup [post]
func (s *Server) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := s.svc.Auth.Signup(c.Request.Context(), service.SignupInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) loginAs(c *gin.Context, role domain.Role) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	pair, err := s.svc.Auth.Login(c.Request.Context(), req.Email, req.Password, role)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

// @Summary Customer login
// @Description Sets user_access_token and user_refresh_token cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} errorResponse
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) { s.loginAs(c, domain.RoleUser) }

// @Summary Admin login
// @Description Sets admin_access_token and admin_refresh_token cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} errorResponse
// @Router /auth/admin/login [post]
func (s *Server) adminLogin(c *gin.Context) { s.loginAs(c, domain.RoleAdmin) }

// refreshSource finds the refresh token: body first, then the cookie of the
// role named by ?role=, otherwise the admin cookie and then the user cookie.
func refreshSource(c *gin.Context) (string, domain.Role, error) {
	var req refreshReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", "", err
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, "", nil
	}
	candidates := roles
	if r := domain.Role(c.Query("role")); r == domain.RoleAdmin || r == domain.RoleUser {
		candidates = []domain.Role{r}
	}
	for _, role := range candidates {
		if v, err := c.Cookie(refreshCookie(role)); err == nil && v != "" {
			return v, role, nil
		}
	}
	return "", "", nil
}

// @Summary Refresh the access token
// @Description Rotates the refresh token. Fails with 403 when the session is gone.
// @Tags auth
// @Accept json
// @Produce json
// @Param role query string false "Session to refresh when both are present (admin or user)"
// @Param input body refreshReq false "Refresh token when not using cookies"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /auth/refreshtoken [post]
func (s *Server) refresh(c *gin.Context) {
	tok, role, err := refreshSource(c)
	if err != nil {
		bindError(c, err)
		return
	}
	pair, err := s.svc.Auth.Refresh(c.Request.Context(), tok)
	if err != nil {
		if role != "" {
			s.clearAuthCookies(c, role)
		}
		switch {
		case errors.Is(err, service.ErrUserBlocked):
			abortWith(c, http.StatusUnauthorized, msgUserBlocked)
		case errors.Is(err, service.ErrSessionExpired):
			abortWith(c, http.StatusForbidden, msgSessionExpired)
		default:
			s.writeError(c, err)
		}
		return
	}
	s.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

// @Summary Log out
// @Description Revokes the refresh sessions found in cookies or the body and clears the cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} messageResponse
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	ctx := c.Request.Context()
	tok, role, err := refreshSource(c)
	if err != nil {
		bindError(c, err)
		return
	}
	if tok != "" && role == "" {
		if err := s.svc.Auth.Logout(ctx, tok); err != nil {
			s.writeError(c, err)
			return
		}
	}
	for _, role := range roles {
		if v, err := c.Cookie(refreshCookie(role)); err == nil && v != "" {
			if err := s.svc.Auth.Logout(ctx, v); err != nil {
				s.writeError(c, err)
				return
			}
		}
		s.clearAuthCookies(c, role)
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// @Summary Current customer
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Router /user/profile [get]
func (s *Server) profile(c *gin.Context) {
	u, err := s.svc.Users.Profile(c.Request.Context(), principal(c).UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
