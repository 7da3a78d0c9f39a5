package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/hrm/internal/domain"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps server-side sessions in Redis with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

var _ domain.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a session store. Every successful Get extends the
// session by ttl.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl, now: time.Now}
}

type sessionRecord struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SessionStore) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("redis.SessionStore.Create: %w", err)
	}

	rec := sessionRecord{UserID: userID, CreatedAt: s.now().UTC()}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("redis.SessionStore.Create: marshal: %w", err)
	}

	ok, err := s.client.SetNX(ctx, sessionKeyPrefix+token, data, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis.SessionStore.Create: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("redis.SessionStore.Create: token collision: %w", domain.ErrConflict)
	}

	return &domain.Session{Token: token, UserID: userID, CreatedAt: rec.CreatedAt}, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("redis.SessionStore.Get: %w", domain.ErrNotFound)
	}

	data, err := s.client.GetEx(ctx, sessionKeyPrefix+token, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis.SessionStore.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis.SessionStore.Get: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("redis.SessionStore.Get: unmarshal: %w", err)
	}

	return &domain.Session{Token: token, UserID: rec.UserID, CreatedAt: rec.CreatedAt}, nil
}

func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis.SessionStore.Destroy: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
