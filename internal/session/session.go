// Package session holds the in-process session table: one live entry per
// browser session, keyed by an opaque token, with at most one live session
// per identity.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusbook/campusbook/internal/auth"
)

// Status classifies a token presented to Resolve.
type Status int

const (
	// StatusNone means the token is unknown or was explicitly invalidated.
	StatusNone Status = iota
	// StatusActive means the token is bound to a live session.
	StatusActive
	// StatusExpired means the token was superseded by a newer login for the
	// same identity. Distinct from StatusNone so callers can say "session
	// expired" instead of "not signed in".
	StatusExpired
)

// expiredTokenTTL bounds how long superseded tokens are remembered.
const expiredTokenTTL = 24 * time.Hour

type entry struct {
	principal auth.Principal
	createdAt time.Time
}

// Manager is the session table. All mutation happens under one mutex so
// "invalidate old, create new" can never race into two live sessions for
// the same identity.
type Manager struct {
	mu         sync.Mutex
	byToken    map[string]entry
	byIdentity map[string]string    // identity key -> live token
	expired    map[string]time.Time // superseded token -> when
	now        func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		byToken:    make(map[string]entry),
		byIdentity: make(map[string]string),
		expired:    make(map[string]time.Time),
		now:        time.Now,
	}
}

// Create binds a fresh token to the principal. Any existing live session for
// the same identity is superseded first: its token is removed and remembered
// as expired.
func (m *Manager) Create(p auth.Principal) string {
	token := uuid.NewString()
	key := p.IdentityKey()
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byIdentity[key]; ok {
		delete(m.byToken, old)
		m.expired[old] = now
	}
	m.pruneExpiredLocked(now)

	m.byToken[token] = entry{principal: p, createdAt: now}
	m.byIdentity[key] = token
	return token
}

// Resolve returns the principal bound to the token, if any. The snapshot is
// consistent: a session is never observed half-invalidated. Superseded tokens
// read as expired until expiredTokenTTL passes, then as absent.
func (m *Manager) Resolve(token string) (auth.Principal, Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.byToken[token]; ok {
		return e.principal, StatusActive
	}
	if at, ok := m.expired[token]; ok {
		if m.now().Sub(at) > expiredTokenTTL {
			delete(m.expired, token)
			return auth.Principal{}, StatusNone
		}
		return auth.Principal{}, StatusExpired
	}
	return auth.Principal{}, StatusNone
}

// CreatedAt returns the creation time of a live session.
func (m *Manager) CreatedAt(token string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byToken[token]
	return e.createdAt, ok
}

// Invalidate removes the session outright. Idempotent; unknown tokens are a
// no-op. An invalidated token is absent, not expired.
func (m *Manager) Invalidate(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byToken[token]
	if ok {
		delete(m.byToken, token)
		if m.byIdentity[e.principal.IdentityKey()] == token {
			delete(m.byIdentity, e.principal.IdentityKey())
		}
	}
	delete(m.expired, token)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToken)
}

func (m *Manager) pruneExpiredLocked(now time.Time) {
	for token, at := range m.expired {
		if now.Sub(at) > expiredTokenTTL {
			delete(m.expired, token)
		}
	}
}
