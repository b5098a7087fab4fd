package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("0123456789abcdef", 13*time.Minute)
	tok, exp, err := m.IssueAccess(42, domain.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(13*time.Minute), exp, 2*time.Second)

	claims, err := m.ParseAccess(tok)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	m := NewTokenManager("0123456789abcdef", 13*time.Minute).WithClock(func() time.Time { return issuedAt })
	tok, _, err := m.IssueAccess(1, domain.RoleUser)
	require.NoError(t, err)

	m.WithClock(time.Now)
	_, err = m.ParseAccess(tok)
	assert.True(t, errors.Is(err, ErrTokenInvalid), "got %v", err)
}

func TestTokenManager_WrongSecretAndGarbage(t *testing.T) {
	a := NewTokenManager("0123456789abcdef", time.Minute)
	b := NewTokenManager("fedcba9876543210", time.Minute)
	tok, _, err := a.IssueAccess(1, domain.RoleUser)
	require.NoError(t, err)

	_, err = b.ParseAccess(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = a.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestPassword(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	h, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(h, "s3cret-pass"))
	assert.ErrorIs(t, CheckPassword(h, "wrong"), ErrPasswordMismatch)
}

func newStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	s, err := OpenSessionStore("", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionStore_CreateGetRotate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, time.Hour)

	sess, err := s.Create(ctx, 7, domain.RoleUser)
	require.NoError(t, err)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, domain.RoleUser, got.Role)

	next, err := s.Rotate(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, next.ID)

	_, err = s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "old refresh token must be unusable after rotation")
	_, err = s.Rotate(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.Get(ctx, next.ID)
	assert.NoError(t, err)
}

func TestSessionStore_ConcurrentRotateSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, time.Hour)
	sess, err := s.Create(ctx, 7, domain.RoleUser)
	require.NoError(t, err)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Rotate(ctx, sess.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrSessionNotFound)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	live, err := s.DeleteByUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, live, "one rotation leaves exactly one session")
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newStore(t, time.Minute).WithClock(func() time.Time { return now })

	sess, err := s.Create(ctx, 1, domain.RoleUser)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, err = s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_DeleteByUser(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, time.Hour)

	a, _ := s.Create(ctx, 1, domain.RoleUser)
	b, _ := s.Create(ctx, 1, domain.RoleUser)
	other, _ := s.Create(ctx, 12, domain.RoleUser)

	n, err := s.DeleteByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{a.ID, b.ID} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
	_, err = s.Get(ctx, other.ID)
	assert.NoError(t, err)

	require.NoError(t, s.Delete(ctx, other.ID))
	require.NoError(t, s.Delete(ctx, "missing"))
}
