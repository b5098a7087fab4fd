package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/auth"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
)

// UserService covers the profile and the admin's customer management.
type UserService struct {
	users    repository.UserRepository
	sessions *auth.SessionStore
	log      *slog.Logger
}

func NewUserService(users repository.UserRepository, sessions *auth.SessionStore, log *slog.Logger) *UserService {
	return &UserService{users: users, sessions: sessions, log: log}
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// List pages through customers, optionally filtered by name or email.
func (s *UserService) List(ctx context.Context, search string, req repository.PageRequest) ([]domain.User, repository.PageInfo, error) {
	all, err := s.users.List(ctx, domain.RoleUser)
	if err != nil {
		return nil, repository.PageInfo{}, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.User, 0, len(all))
	for _, u := range all {
		if search == "" || strings.Contains(strings.ToLower(u.Name), search) || strings.Contains(u.Email, search) {
			out = append(out, u)
		}
	}
	page, info := repository.Paginate(out, req)
	return page, info, nil
}

// SetBlocked blocks or unblocks a customer. Blocking revokes every refresh session.
func (s *UserService) SetBlocked(ctx context.Context, userID int64, blocked bool) (*domain.User, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		return nil, invalidState("admins cannot be blocked")
	}
	u.Blocked = blocked
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	if blocked {
		n, err := s.sessions.DeleteByUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		s.log.Info("user blocked", "user_id", u.ID, "sessions_revoked", n)
	} else {
		s.log.Info("user unblocked", "user_id", u.ID)
	}
	return u, nil
}
