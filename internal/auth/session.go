package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
)

// SessionStore maps session ids to user ids. Get returns "" for unknown or
// expired sessions.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore wraps Redis for session management.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: SessionTTL}
}

func sessionKey(sid string) string { return "session:" + sid }

// Create stores a new session mapping sessionID -> userID.
func (s *RedisSessionStore) Create(ctx context.Context, userID string) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, sessionKey(sid), userID, s.ttl).Err()
	return sid, err
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

type memorySession struct {
	userID  string
	expires time.Time
}

// MemorySessionStore keeps sessions in process. Used when no Redis address is
// configured and in tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, now: time.Now, sessions: make(map[string]memorySession)}
}

func (s *MemorySessionStore) Create(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sid := uuid.New().String()
	s.sessions[sid] = memorySession{userID: userID, expires: s.now().Add(s.ttl)}
	return sid, nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", nil
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, sessionID)
		return "", nil
	}
	return sess.userID, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
