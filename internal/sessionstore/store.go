package sessionstore

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/sessiongate/internal/entities"
)

var (
	ErrStoreUnavailable = errors.New("session store unavailable")
	ErrSessionDestroyed = errors.New("session has been destroyed")
)

// Keys of the values map handed to the codec.
const (
	keyAuthenticated = "authenticated"
	keyUsername      = "username"
	keyCreatedAt     = "created_at"
)

func init() {
	gob.Register(time.Time{})
}

// Backend is the persistence contract for encoded session records. Any
// scs.Store works; implementing scs.CtxStore as well lets request contexts
// reach the backend.
type Backend = scs.Store

// Store loads, saves and destroys sessions on a backend.
type Store struct {
	backend  Backend
	codec    scs.Codec
	lifetime time.Duration
	now      func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithCodec replaces the default gob codec.
func WithCodec(codec scs.Codec) Option {
	return func(s *Store) {
		s.codec = codec
	}
}

// New creates a store whose fresh sessions live for lifetime.
func New(backend Backend, lifetime time.Duration, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		codec:    scs.GobCodec{},
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cb, ok := backend.(clockedBackend); ok {
		cb.setClock(s.now)
	}
	return s
}

// clockedBackend is a backend that derives TTLs from the current time and
// must agree with the store about it.
type clockedBackend interface {
	setClock(now func() time.Time)
}

// Lifetime returns the TTL applied to new and renewed sessions.
func (s *Store) Lifetime() time.Duration {
	return s.lifetime
}

// CreateOrLoad returns the live session stored under id. A missing, expired
// or unreadable record yields a fresh anonymous session bound to id; an empty
// id yields a fresh session under a newly generated id.
func (s *Store) CreateOrLoad(ctx context.Context, id string) (*entities.Session, error) {
	if id == "" {
		newID, err := GenerateID()
		if err != nil {
			return nil, err
		}
		return s.fresh(newID), nil
	}

	b, found, err := s.find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load session: %w", ErrStoreUnavailable, err)
	}
	if !found {
		return s.fresh(id), nil
	}

	deadline, values, err := s.codec.Decode(b)
	if err != nil {
		log.Printf("Session store: discarding unreadable session record: %v", err)
		return s.fresh(id), nil
	}

	sess := &entities.Session{
		ID:        id,
		ExpiresAt: deadline,
	}
	if sess.Expired(s.now()) {
		return s.fresh(id), nil
	}

	sess.Authenticated, _ = values[keyAuthenticated].(bool)
	sess.Username, _ = values[keyUsername].(string)
	sess.CreatedAt, _ = values[keyCreatedAt].(time.Time)

	// An authenticated flag without a username is not a usable identity.
	if sess.Username == "" {
		sess.Authenticated = false
	}

	return sess, nil
}

// Save persists the session under its id. A session whose TTL has already
// elapsed is deleted instead.
func (s *Store) Save(ctx context.Context, sess *entities.Session) error {
	if sess.Destroyed {
		return ErrSessionDestroyed
	}
	if sess.ID == "" {
		newID, err := GenerateID()
		if err != nil {
			return err
		}
		sess.ID = newID
	}

	now := s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = now.Add(s.lifetime)
	}
	if sess.Expired(now) {
		return s.Destroy(ctx, sess.ID)
	}

	b, err := s.codec.Encode(sess.ExpiresAt, map[string]interface{}{
		keyAuthenticated: sess.Authenticated,
		keyUsername:      sess.Username,
		keyCreatedAt:     sess.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.commit(ctx, sess.ID, b, sess.ExpiresAt); err != nil {
		return fmt.Errorf("%w: save session: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Destroy removes the durable record for id. Destroying an absent session is
// not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.delete(ctx, id); err != nil {
		return fmt.Errorf("%w: destroy session: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Renew moves the session to a newly generated id and destroys the record
// under the old one. The caller must Save the session afterwards.
func (s *Store) Renew(ctx context.Context, sess *entities.Session) error {
	if sess.Destroyed {
		return ErrSessionDestroyed
	}

	newID, err := GenerateID()
	if err != nil {
		return err
	}
	if err := s.Destroy(ctx, sess.ID); err != nil {
		return err
	}
	sess.ID = newID
	return nil
}

// Ping checks backend connectivity when the backend supports it.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Store) fresh(id string) *entities.Session {
	now := s.now()
	return &entities.Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(s.lifetime),
	}
}

func (s *Store) find(ctx context.Context, id string) ([]byte, bool, error) {
	if cs, ok := s.backend.(scs.CtxStore); ok {
		return cs.FindCtx(ctx, id)
	}
	return s.backend.Find(id)
}

func (s *Store) commit(ctx context.Context, id string, b []byte, expiry time.Time) error {
	if cs, ok := s.backend.(scs.CtxStore); ok {
		return cs.CommitCtx(ctx, id, b, expiry)
	}
	return s.backend.Commit(id, b, expiry)
}

func (s *Store) delete(ctx context.Context, id string) error {
	if cs, ok := s.backend.(scs.CtxStore); ok {
		return cs.DeleteCtx(ctx, id)
	}
	return s.backend.Delete(id)
}
