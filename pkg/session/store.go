package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rackforge/dashgate/pkg/identity"
	"github.com/rackforge/dashgate/pkg/observability"
)

const shardCount = 16

// Session binds an authenticated identity to an opaque token
type Session struct {
	Token     string
	Identity  identity.Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// Store is an in-memory session store with lazy expiry. All operations are
// safe for concurrent use; operations on the same token serialize on the
// token's shard lock.
type Store struct {
	shards  [shardCount]*shard
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewStore creates a session store. clock may be nil to use wall-clock time;
// metrics may be nil to disable instrumentation.
func NewStore(ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Store{
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	return s
}

func (s *Store) shardFor(token string) *shard {
	h := fnv.New32a()
	h.Write([]byte(token))
	return s.shards[h.Sum32()%shardCount]
}

// Issue creates a session for the identity under a fresh token
func (s *Store) Issue(id *identity.Identity) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	now := s.clock.Now()
	sess := &Session{
		Token:     token,
		Identity:  *id,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	sh := s.shardFor(token)
	sh.mu.Lock()
	sh.sessions[token] = sess
	sh.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionsIssuedTotal.Inc()
		s.metrics.SessionsActive.Inc()
	}
	return sess, nil
}

// Lookup returns the live session for a token. A session past its deadline
// is removed on the spot and reported as absent: lookup and expiry check are
// atomic with respect to other operations on the same token.
func (s *Store) Lookup(token string) (*Session, bool) {
	sh := s.shardFor(token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[token]
	if !ok {
		return nil, false
	}
	if !s.clock.Now().Before(sess.ExpiresAt) {
		delete(sh.sessions, token)
		if s.metrics != nil {
			s.metrics.SessionsExpiredTotal.Inc()
			s.metrics.SessionsActive.Dec()
		}
		return nil, false
	}
	return sess, true
}

// Revoke deletes the session for a token. Revoking an unknown or already
// revoked token is a no-op.
func (s *Store) Revoke(token string) {
	sh := s.shardFor(token)
	sh.mu.Lock()
	_, existed := sh.sessions[token]
	delete(sh.sessions, token)
	sh.mu.Unlock()

	if existed && s.metrics != nil {
		s.metrics.SessionsRevokedTotal.Inc()
		s.metrics.SessionsActive.Dec()
	}
}

// Len reports the number of stored sessions, expired ones included until
// they are looked up or swept
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.sessions)
		sh.mu.Unlock()
	}
	return total
}

// Sweep removes every expired session and returns how many were dropped
func (s *Store) Sweep() int {
	now := s.clock.Now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for token, sess := range sh.sessions {
			if !now.Before(sess.ExpiresAt) {
				delete(sh.sessions, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 && s.metrics != nil {
		s.metrics.SessionsExpiredTotal.Add(float64(removed))
		s.metrics.SessionsActive.Sub(float64(removed))
	}
	return removed
}

// StartSweep runs Sweep on the given interval until the context is
// cancelled. Lazy expiry in Lookup keeps correctness independent of the
// sweep; this only bounds memory held by abandoned sessions.
func (s *Store) StartSweep(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Sweep()
		}
	}
}
