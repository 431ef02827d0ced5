package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory reference [Store] for single-process
// deployments and tests. Expired sessions are dropped lazily on read and,
// when a sweep interval is configured, by a background janitor.
type MemoryStore struct {
	ttl           time.Duration
	sweepInterval time.Duration

	mu          sync.RWMutex
	sessions    map[string]*Session
	byPrincipal map[string]map[string]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a [MemoryStore]. ttl is the absolute session
// lifetime (zero means sessions never expire). A positive sweepInterval
// starts a janitor goroutine; call [MemoryStore.Close] to stop it.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:           ttl,
		sweepInterval: sweepInterval,
		sessions:      make(map[string]*Session),
		byPrincipal:   make(map[string]map[string]struct{}),
		done:          make(chan struct{}),
	}

	if sweepInterval > 0 {
		go s.janitor()
	}

	return s
}

// Create allocates a new session for the principal.
func (s *MemoryStore) Create(_ context.Context, principal string) (*Session, error) {
	if len(principal) > MaxPrincipalLen {
		return nil, ErrPrincipalTooLong
	}

	now := time.Now()

	sess := &Session{
		SessionID:      uuid.NewString(),
		Principal:      principal,
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
	}
	if s.ttl > 0 {
		sess.ExpiresAt = now.Add(s.ttl).Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.SessionID] = sess
	index, ok := s.byPrincipal[principal]
	if !ok {
		index = make(map[string]struct{})
		s.byPrincipal[principal] = index
	}
	index[sess.SessionID] = struct{}{}

	return sess.clone(), nil
}

// Get fetches one session by ID.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	nowUnix := time.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(nowUnix) {
		s.removeLocked(sess)
		return nil, ErrNotFound
	}

	return sess.clone(), nil
}

// List returns the principal's current, non-expired sessions.
func (s *MemoryStore) List(_ context.Context, principal string) ([]*Session, error) {
	nowUnix := time.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listLocked(principal, nowUnix), nil
}

// Count returns len(List(principal)) from the same snapshot.
func (s *MemoryStore) Count(_ context.Context, principal string) (int, error) {
	nowUnix := time.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.listLocked(principal, nowUnix)), nil
}

// Touch advances the session's LastActivityAt.
func (s *MemoryStore) Touch(_ context.Context, sessionID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if sess.Expired(now.Unix()) {
		s.removeLocked(sess)
		return ErrNotFound
	}

	if now.Unix() > sess.LastActivityAt {
		sess.LastActivityAt = now.Unix()
	}

	return nil
}

// Revoke removes one session. Idempotent: an absent ID reports false, nil.
func (s *MemoryStore) Revoke(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	s.removeLocked(sess)

	return true, nil
}

// RevokeAll removes every session for the principal.
func (s *MemoryStore) RevokeAll(_ context.Context, principal string) (int, error) {
	return s.revokeMatching(principal, "")
}

// RevokeAllExcept removes every session for the principal except the given one.
func (s *MemoryStore) RevokeAllExcept(_ context.Context, principal, keepSessionID string) (int, error) {
	return s.revokeMatching(principal, keepSessionID)
}

// TotalCount returns the number of live sessions across all principals.
func (s *MemoryStore) TotalCount(_ context.Context) (int, error) {
	nowUnix := time.Now().Unix()

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, sess := range s.sessions {
		if !sess.Expired(nowUnix) {
			total++
		}
	}

	return total, nil
}

// Ping reports store availability. Always healthy for the in-memory store.
func (s *MemoryStore) Ping(context.Context) (time.Duration, error) {
	return 0, nil
}

// Close stops the janitor goroutine. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *MemoryStore) revokeMatching(principal, keepSessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.byPrincipal[principal]
	if !ok {
		return 0, nil
	}

	nowUnix := time.Now().Unix()
	removed := 0
	for sid := range index {
		if keepSessionID != "" && sid == keepSessionID {
			continue
		}
		sess, ok := s.sessions[sid]
		if !ok {
			delete(index, sid)
			continue
		}
		expired := sess.Expired(nowUnix)
		s.removeLocked(sess)
		if !expired {
			removed++
		}
	}

	return removed, nil
}

func (s *MemoryStore) listLocked(principal string, nowUnix int64) []*Session {
	index, ok := s.byPrincipal[principal]
	if !ok {
		return []*Session{}
	}

	sessions := make([]*Session, 0, len(index))
	for sid := range index {
		sess, ok := s.sessions[sid]
		if !ok {
			delete(index, sid)
			continue
		}
		if sess.Expired(nowUnix) {
			s.removeLocked(sess)
			continue
		}
		sessions = append(sessions, sess.clone())
	}

	return sessions
}

func (s *MemoryStore) removeLocked(sess *Session) {
	delete(s.sessions, sess.SessionID)
	if index, ok := s.byPrincipal[sess.Principal]; ok {
		delete(index, sess.SessionID)
		if len(index) == 0 {
			delete(s.byPrincipal, sess.Principal)
		}
	}
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	nowUnix := time.Now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.Expired(nowUnix) {
			s.removeLocked(sess)
		}
	}
}
