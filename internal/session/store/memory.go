package store

import (
	"context"
	"sync"
	"time"

	"care-link-platform/backend/internal/session/domain"
)

type sessionEntry struct {
	sess      domain.Session
	expiresAt time.Time
}

type pointerEntry struct {
	id        domain.SessionID
	expiresAt time.Time
}

type handoffEntry struct {
	h         Handoff
	expiresAt time.Time
}

// MemoryStore is an in-memory Store for unit tests and local development.
// TTLs are enforced lazily on read using the injectable clock.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]sessionEntry
	pointers map[string]pointerEntry
	handoffs map[string]handoffEntry
	nowF     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[domain.SessionID]sessionEntry),
		pointers: make(map[string]pointerEntry),
		handoffs: make(map[string]handoffEntry),
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the store's clock. Test-only.
func (s *MemoryStore) SetClock(nowF func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowF = nowF
}

func (s *MemoryStore) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || !e.expiresAt.After(s.nowF()) {
		delete(s.sessions, id)
		return nil, nil
	}
	sess := e.sess
	return &sess, nil
}

func (s *MemoryStore) PutSession(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sessionEntry{sess: *sess, expiresAt: s.nowF().Add(ttl)}
	return nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) SetRefreshSecretHash(ctx context.Context, id domain.SessionID, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || !e.expiresAt.After(s.nowF()) {
		delete(s.sessions, id)
		return false, nil
	}
	e.sess.RefreshSecretHash = hash
	s.sessions[id] = e
	return true, nil
}

func (s *MemoryStore) TouchSession(ctx context.Context, id domain.SessionID, lastSeen time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || !e.expiresAt.After(s.nowF()) {
		delete(s.sessions, id)
		return false, nil
	}
	e.sess.LastSeenAt = lastSeen
	e.expiresAt = s.nowF().Add(ttl)
	s.sessions[id] = e
	return true, nil
}

func (s *MemoryStore) GetPointer(ctx context.Context, userID string) (domain.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pointers[userID]
	if !ok || !e.expiresAt.After(s.nowF()) {
		delete(s.pointers, userID)
		return "", nil
	}
	return e.id, nil
}

func (s *MemoryStore) SetPointer(ctx context.Context, userID string, id domain.SessionID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointers[userID] = pointerEntry{id: id, expiresAt: s.nowF().Add(ttl)}
	return nil
}

func (s *MemoryStore) DeletePointer(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pointers, userID)
	return nil
}

func (s *MemoryStore) TouchPointer(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pointers[userID]
	if !ok || !e.expiresAt.After(s.nowF()) {
		delete(s.pointers, userID)
		return false, nil
	}
	e.expiresAt = s.nowF().Add(ttl)
	s.pointers[userID] = e
	return true, nil
}

func (s *MemoryStore) PutHandoff(ctx context.Context, token string, h *Handoff, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoffs[token] = handoffEntry{h: *h, expiresAt: s.nowF().Add(ttl)}
	return nil
}

func (s *MemoryStore) TakeHandoff(ctx context.Context, token string) (*Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.handoffs[token]
	delete(s.handoffs, token)
	if !ok || !e.expiresAt.After(s.nowF()) {
		return nil, nil
	}
	h := e.h
	return &h, nil
}
