package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/auth"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// MinPasswordLength applies to signup and the admin bootstrap account.
const MinPasswordLength = 8

// AuthService handles signup, login, token refresh and logout.
type AuthService struct {
	users    repository.UserRepository
	sessions *auth.SessionStore
	tokens   *auth.TokenManager
	log      *slog.Logger
}

func NewAuthService(users repository.UserRepository, sessions *auth.SessionStore, tokens *auth.TokenManager, log *slog.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokens: tokens, log: log}
}

// SignupInput is a new customer account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// TokenPair is what login and refresh hand out. The refresh token is opaque.
type TokenPair struct {
	User             domain.User `json:"user"`
	AccessToken      string      `json:"access_token"`
	AccessExpiresAt  time.Time   `json:"access_expires_at"`
	RefreshToken     string      `json:"-"`
	RefreshExpiresAt time.Time   `json:"-"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID int64
	Role   domain.Role
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	if blank(in.Name) {
		return nil, invalid("name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, invalid("email is invalid")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}
	if in.Phone != "" && !phoneRe.MatchString(in.Phone) {
		return nil, invalid("phone must be 10 to 13 digits")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        addr.Address,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: email is already registered", repository.ErrConflict)
		}
		return nil, err
	}
	s.log.Info("user signed up", "user_id", u.ID)
	return &u, nil
}

// Login checks credentials for the given role; a user cannot log in on the admin endpoint.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (*TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Role != role {
		return nil, ErrInvalidCredentials
	}
	if u.Blocked {
		return nil, ErrUserBlocked
	}
	sess, err := s.sessions.Create(ctx, u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	s.log.Info("login", "user_id", u.ID, "role", u.Role)
	return s.pair(u, sess)
}

// Refresh rotates the refresh session and issues a fresh access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrSessionExpired
	}
	sess, err := s.sessions.Rotate(ctx, refreshToken)
	if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if u.Blocked {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, ErrUserBlocked
	}
	return s.pair(u, sess)
}

// Logout drops the refresh session. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.Delete(ctx, refreshToken)
}

// Authenticate validates an access token and the account behind it.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	id, _ := claims.UserID()
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if u.Blocked {
		return nil, ErrUserBlocked
	}
	return &Principal{UserID: u.ID, Role: u.Role}, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	if u, err := s.users.GetByEmail(ctx, email); err == nil {
		return u, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("admin password must be at least %d characters", MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := domain.User{Name: name, Email: email, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.users.Create(ctx, &u); err != nil {
		return nil, err
	}
	s.log.Info("admin account created", "email", u.Email)
	return &u, nil
}

func (s *AuthService) pair(u *domain.User, sess *auth.Session) (*TokenPair, error) {
	access, exp, err := s.tokens.IssueAccess(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		User:             *u,
		AccessToken:      access,
		AccessExpiresAt:  exp,
		RefreshToken:     sess.ID,
		RefreshExpiresAt: sess.ExpiresAt,
	}, nil
}
