package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/auth"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/logger"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

func setupAuth(t *testing.T) (*AuthService, *UserService) {
	t.Helper()
	auth.BcryptCost = bcrypt.MinCost
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	sessions, err := auth.OpenSessionStore("", 24*time.Hour)
	if err != nil {
		t.Fatalf("open sessions: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })
	tokens := auth.NewTokenManager("test-secret", 13*time.Minute)
	return NewAuthService(users, sessions, tokens, logger.Discard()), NewUserService(users, sessions, logger.Discard())
}

func signup(t *testing.T, as *AuthService, email string) *domain.User {
	t.Helper()
	u, err := as.Signup(context.Background(), SignupInput{Name: "Asha", Email: email, Password: "password1", Phone: "9876543210"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return u
}

func TestSignup_Validation(t *testing.T) {
	ctx := context.Background()
	as, _ := setupAuth(t)

	bad := []SignupInput{
		{Name: "", Email: "a@b.com", Password: "password1"},
		{Name: "A", Email: "not-an-email", Password: "password1"},
		{Name: "A", Email: "a@b.com", Password: "short"},
		{Name: "A", Email: "a@b.com", Password: "password1", Phone: "12"},
	}
	for i, in := range bad {
		if _, err := as.Signup(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
	u := signup(t, as, "asha@example.com")
	if u.Role != domain.RoleUser || u.PasswordHash == "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := as.Signup(ctx, SignupInput{Name: "B", Email: "ASHA@example.com", Password: "password1"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate email must conflict, got %v", err)
	}
}

func TestLogin_RolesAndCredentials(t *testing.T) {
	ctx := context.Background()
	as, _ := setupAuth(t)
	signup(t, as, "asha@example.com")
	if _, err := as.EnsureAdmin(ctx, "Admin", "admin@example.com", "admin12345"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	pair, err := as.Login(ctx, "asha@example.com", "password1", domain.RoleUser)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	p, err := as.Authenticate(ctx, pair.AccessToken)
	if err != nil || p.UserID != pair.User.ID || p.Role != domain.RoleUser {
		t.Fatalf("authenticate: %+v %v", p, err)
	}

	if _, err := as.Login(ctx, "asha@example.com", "wrong", domain.RoleUser); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := as.Login(ctx, "nobody@example.com", "password1", domain.RoleUser); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
	if _, err := as.Login(ctx, "asha@example.com", "password1", domain.RoleAdmin); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("user on admin login: %v", err)
	}
	admin, err := as.Login(ctx, "admin@example.com", "admin12345", domain.RoleAdmin)
	if err != nil || admin.User.Role != domain.RoleAdmin {
		t.Fatalf("admin login: %+v %v", admin, err)
	}

	// bootstrap is idempotent
	again, err := as.EnsureAdmin(ctx, "Admin", "admin@example.com", "ignored-password")
	if err != nil || again.ID != admin.User.ID {
		t.Fatalf("ensure admin twice: %+v %v", again, err)
	}
}

func TestRefresh_RotatesAndLogoutRevokes(t *testing.T) {
	ctx := context.Background()
	as, _ := setupAuth(t)
	signup(t, as, "asha@example.com")
	pair, _ := as.Login(ctx, "asha@example.com", "password1", domain.RoleUser)

	next, err := as.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}
	if _, err := as.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("old refresh token must be dead, got %v", err)
	}
	if _, err := as.Refresh(ctx, ""); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("missing refresh token: %v", err)
	}

	if err := as.Logout(ctx, next.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := as.Refresh(ctx, next.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("logged out token must be dead, got %v", err)
	}
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	as, _ := setupAuth(t)
	if _, err := as.Authenticate(ctx, "garbage"); !errors.Is(err, auth.ErrTokenMalformed) {
		t.Fatalf("expected malformed, got %v", err)
	}
	other := auth.NewTokenManager("another-secret", time.Minute)
	tok, _, _ := other.IssueAccess(1, domain.RoleUser)
	if _, err := as.Authenticate(ctx, tok); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestBlockUser_RevokesSessions(t *testing.T) {
	ctx := context.Background()
	as, us := setupAuth(t)
	u := signup(t, as, "asha@example.com")
	signup(t, as, "ravi@example.com")
	pair, _ := as.Login(ctx, "asha@example.com", "password1", domain.RoleUser)

	blocked, err := us.SetBlocked(ctx, u.ID, true)
	if err != nil || !blocked.Blocked {
		t.Fatalf("block: %+v %v", blocked, err)
	}
	if _, err := as.Authenticate(ctx, pair.AccessToken); !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("blocked access token: %v", err)
	}
	if _, err := as.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("sessions must be revoked, got %v", err)
	}
	if _, err := as.Login(ctx, "asha@example.com", "password1", domain.RoleUser); !errors.Is(err, ErrUserBlocked) {
		t.Fatalf("blocked login: %v", err)
	}

	if _, err := us.SetBlocked(ctx, u.ID, false); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := as.Login(ctx, "asha@example.com", "password1", domain.RoleUser); err != nil {
		t.Fatalf("login after unblock: %v", err)
	}

	admin, _ := as.EnsureAdmin(ctx, "Admin", "admin@example.com", "admin12345")
	if _, err := us.SetBlocked(ctx, admin.ID, true); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("admins cannot be blocked, got %v", err)
	}

	list, info, err := us.List(ctx, "ravi", repository.PageRequest{})
	if err != nil || len(list) != 1 || info.Total != 1 {
		t.Fatalf("search users: %v %+v %v", list, info, err)
	}
	all, _, _ := us.List(ctx, "", repository.PageRequest{})
	if len(all) != 2 {
		t.Fatalf("admins must not be listed, got %d", len(all))
	}
}
