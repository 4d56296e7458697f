package auth

import (
	"time"

	"github.com/mrlokans/sessiongate/internal/config"
	"github.com/mrlokans/sessiongate/internal/entities"
)

// SessionManager mutates session handles in memory. It never touches the
// store: every Attach must be followed by a store Save, every Clear must be
// preceded by a store Destroy.
type SessionManager struct {
	lifetime time.Duration
	now      func() time.Time
}

type SessionManagerOption func(*SessionManager)

// WithSessionClock replaces time.Now, for tests.
func WithSessionClock(now func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// NewSessionManager creates a session manager using the configured lifetime.
func NewSessionManager(cfg config.Auth, opts ...SessionManagerOption) *SessionManager {
	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = config.DefaultSessionLifetime
	}

	m := &SessionManager{
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach marks the session as authenticated for username and restarts its TTL.
func (m *SessionManager) Attach(sess *entities.Session, username string) {
	sess.Authenticated = true
	sess.Username = username
	sess.ExpiresAt = m.now().Add(m.lifetime)
}

// IsAuthenticated returns true if the session is logged in and not expired.
func (m *SessionManager) IsAuthenticated(sess *entities.Session) bool {
	if sess == nil || sess.Destroyed {
		return false
	}
	return sess.Authenticated && sess.Username != "" && !sess.Expired(m.now())
}

// Clear logs the session out locally and retires the handle.
func (m *SessionManager) Clear(sess *entities.Session) {
	sess.Authenticated = false
	sess.Username = ""
	sess.Destroyed = true
}
