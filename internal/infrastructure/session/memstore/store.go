// Package memstore keeps sessions in process memory for single-instance deployments.
package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

type Store struct {
	cache *expirable.LRU[string, domain.Session]
	now   func() time.Time
}

// New bounds the store to size sessions; the oldest is evicted when full.
func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		cache: expirable.NewLRU[string, domain.Session](size, nil, ttl),
		now:   time.Now,
	}
}

func (s *Store) Save(_ context.Context, session *domain.Session) error {
	s.cache.Add(session.ID, *session)
	return nil
}

// Touch re-adds the session, which restarts its expiry.
func (s *Store) Touch(_ context.Context, sessionID string) (*domain.Session, error) {
	session, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "touch session", fmt.Errorf("session %s", sessionID))
	}
	session.LastActivity = s.now().UTC()
	s.cache.Add(sessionID, session)
	return &session, nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.cache.Remove(sessionID)
	return nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}
