package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

// Client is the subset of redis.Cmdable the store uses.
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetEx(ctx context.Context, key string, expiration time.Duration) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store keeps sessions as JSON values whose expiry slides on every Touch.
type Store struct {
	client Client
	ttl    time.Duration
	now    func() time.Time
}

func New(client Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func sessionKey(sessionID string) string {
	return "scalp:session:" + sessionID
}

func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "save session", err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, sessionID string) (*domain.Session, error) {
	key := sessionKey(sessionID)
	raw, err := s.client.GetEx(ctx, key, s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.WrapError(domain.ErrNotFound, "touch session", fmt.Errorf("session %s", sessionID))
		}
		return nil, domain.WrapError(domain.ErrTemporary, "touch session", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	session.LastActivity = s.now().UTC()

	data, err := json.Marshal(&session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "touch session", err)
	}
	return &session, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "delete session", err)
	}
	return nil
}
