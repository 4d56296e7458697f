package entities

import (
	"time"
)

// Session is the server-side state behind a session cookie.
//
// The record is owned by the session store; callers only hold the handle for
// the duration of one request and must hand it back to the store to persist
// any change.
type Session struct {
	ID            string
	Authenticated bool
	Username      string
	CreatedAt     time.Time
	ExpiresAt     time.Time

	// Destroyed is set once the durable record has been removed and the
	// handle cleared. A destroyed handle must not be saved again.
	Destroyed bool
}

// Expired reports whether the session's TTL has elapsed at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt)
}
