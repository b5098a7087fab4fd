package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/techy05-v/Blitz-ecom-sub000/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is a refresh token record. The token handed to the client is ID.
type Session struct {
	ID        string      `json:"id"`
	UserID    int64       `json:"user_id"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// SessionStore keeps refresh sessions in LevelDB.
//
// Layout:
//
//	session:<id>          -> JSON Session
//	user:<userID>:<id>    -> empty, index for revoking all sessions of a user
//
// mu serialises read-then-write changes so a token rotates at most once.
type SessionStore struct {
	db  *leveldb.DB
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
}

// OpenSessionStore opens the database at path; an empty path uses memory storage.
func OpenSessionStore(path string, ttl time.Duration) (*SessionStore, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &SessionStore{db: db, ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source, used by tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Close() error { return s.db.Close() }

func sessionKey(id string) []byte { return []byte("session:" + id) }

func userPrefix(userID int64) []byte {
	return []byte("user:" + strconv.FormatInt(userID, 10) + ":")
}

func userKey(userID int64, id string) []byte {
	return append(userPrefix(userID), id...)
}

// Create stores a new session for the user.
func (s *SessionStore) Create(ctx context.Context, userID int64, role domain.Role) (*Session, error) {
	batch := new(leveldb.Batch)
	sess, err := s.put(batch, userID, role)
	if err != nil {
		return nil, err
	}
	if err := s.db.Write(batch, nil); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) put(batch *leveldb.Batch, userID int64, role domain.Role) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	batch.Put(sessionKey(sess.ID), data)
	batch.Put(userKey(userID, sess.ID), nil)
	return sess, nil
}

// Get loads a live session. Expired sessions are removed on read.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *SessionStore) get(id string) (*Session, error) {
	data, err := s.db.Get(sessionKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !s.now().Before(sess.ExpiresAt) {
		_ = s.delete(id)
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// Rotate replaces a live session with a new one in a single write.
// Of two concurrent rotations of the same id only one succeeds.
func (s *SessionStore) Rotate(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, err := s.get(id)
	if err != nil {
		return nil, err
	}
	batch := new(leveldb.Batch)
	batch.Delete(sessionKey(old.ID))
	batch.Delete(userKey(old.UserID, old.ID))
	sess, err := s.put(batch, old.UserID, old.Role)
	if err != nil {
		return nil, err
	}
	if err := s.db.Write(batch, nil); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return sess, nil
}

// Delete removes one session. Unknown ids are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(id)
}

func (s *SessionStore) delete(id string) error {
	data, err := s.db.Get(sessionKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var sess Session
	batch := new(leveldb.Batch)
	batch.Delete(sessionKey(id))
	if json.Unmarshal(data, &sess) == nil {
		batch.Delete(userKey(sess.UserID, id))
	}
	return s.db.Write(batch, nil)
}

// DeleteByUser revokes every session of the user and returns how many were removed.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := userPrefix(userID)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	batch := new(leveldb.Batch)
	n := 0
	for iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		id := string(key[len(prefix):])
		batch.Delete(key)
		batch.Delete(sessionKey(id))
		n++
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}
