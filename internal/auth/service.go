package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/mrlokans/sessiongate/internal/database/users"
	"github.com/mrlokans/sessiongate/internal/entities"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error)
	GetUser(ctx context.Context, username string) (*entities.User, error)
	ListUsers(ctx context.Context) ([]entities.User, error)
}

// SessionStore defines the durable side of session handling.
type SessionStore interface {
	CreateOrLoad(ctx context.Context, id string) (*entities.Session, error)
	Save(ctx context.Context, sess *entities.Session) error
	Destroy(ctx context.Context, id string) error
	Renew(ctx context.Context, sess *entities.Session) error
}

// RegisterRequest is the payload of a registration.
type RegisterRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate checks required fields and the username allow-list.
func (r RegisterRequest) Validate() error {
	if err := requireCredentials(r.Username, r.Password); err != nil {
		return err
	}
	if !users.ValidUsername(r.Username) {
		return ErrInvalidUsername
	}
	return nil
}

// LoginRequest is the payload of a login.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate checks required fields only; an unknown or malformed username is
// reported as a failed authentication, not as invalid input.
func (r LoginRequest) Validate() error {
	return requireCredentials(r.Username, r.Password)
}

func requireCredentials(username, password string) error {
	switch {
	case username == "" && password == "":
		return ErrMissingCredentials
	case username == "":
		return ErrMissingUsername
	case password == "":
		return ErrMissingPassword
	}
	return nil
}

// Result is the outcome of an auth operation. A failed operation never
// reports Authenticated; Session is still set so the caller can keep
// pointing the client at it.
type Result struct {
	Authenticated bool
	Username      string
	Session       *entities.Session
}

// Service handles registration, login, logout and access checks.
type Service struct {
	users    UserRepository
	hasher   *Hasher
	sessions *SessionManager
	store    SessionStore

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(userRepo UserRepository, hasher *Hasher, sessions *SessionManager, store SessionStore) *Service {
	return &Service{
		users:    userRepo,
		hasher:   hasher,
		sessions: sessions,
		store:    store,
	}
}

// Sessions returns the session manager used by the service.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// Register creates a user and logs the session in as that user.
func (s *Service) Register(ctx context.Context, req RegisterRequest, sess *entities.Session) (Result, error) {
	sess, err := s.ensureSession(ctx, sess)
	if err != nil {
		return Result{}, err
	}

	if _, err := s.CreateUser(ctx, req); err != nil {
		return Result{Session: sess}, err
	}

	return s.establish(ctx, sess, req.Username)
}

// CreateUser validates the request, hashes the password and stores the user.
// It does not touch any session.
func (s *Service) CreateUser(ctx context.Context, req RegisterRequest) (*entities.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, req.Username, hash)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateUser):
			return nil, fmt.Errorf("%w: %w", ErrUserCreationFailed, ErrDuplicateUser)
		case errors.Is(err, users.ErrInvalidUsername):
			return nil, ErrInvalidUsername
		default:
			return nil, fmt.Errorf("%w: %w: %w", ErrUserCreationFailed, ErrStoreUnavailable, err)
		}
	}

	log.Printf("Auth: registered user %q", req.Username)
	return user, nil
}

// Login verifies credentials and logs the session in on success. On failure
// the handle is not modified and nothing is written to the store.
func (s *Service) Login(ctx context.Context, req LoginRequest, sess *entities.Session) (Result, error) {
	sess, err := s.ensureSession(ctx, sess)
	if err != nil {
		return Result{}, err
	}

	if err := req.Validate(); err != nil {
		return Result{Session: sess}, err
	}

	user, err := s.users.GetUser(ctx, req.Username)
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		// Spend the same bcrypt time as a real check.
		s.hasher.Verify(req.Password, s.placeholderHash())
		log.Printf("Auth: login failed: user not found")
		return Result{Session: sess}, ErrAuthenticationFailed
	case errors.Is(err, users.ErrRepositoryInvariantViolated):
		log.Printf("Auth: integrity error during login: %v", err)
		return Result{Session: sess}, ErrAuthenticationFailed
	case err != nil:
		return Result{Session: sess}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		log.Printf("Auth: login failed: invalid password")
		return Result{Session: sess}, ErrAuthenticationFailed
	}

	return s.establish(ctx, sess, user.Username)
}

// Logout destroys the durable session record, then clears the handle. The
// handle ends up anonymous even when the destroy fails; that failure is
// still returned.
func (s *Service) Logout(ctx context.Context, sess *entities.Session) (Result, error) {
	if sess == nil {
		return Result{}, nil
	}

	destroyErr := s.store.Destroy(ctx, sess.ID)
	s.sessions.Clear(sess)

	if destroyErr != nil {
		log.Printf("Auth: error destroying session in the store: %v", destroyErr)
		return Result{Session: sess}, destroyErr
	}
	return Result{Session: sess}, nil
}

// CheckAccess loads the session for sessionID and reports whether it is
// authenticated as an existing user. An empty id is anonymous.
func (s *Service) CheckAccess(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return Result{}, nil
	}

	sess, err := s.store.CreateOrLoad(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if !s.sessions.IsAuthenticated(sess) {
		return Result{Session: sess}, nil
	}

	if _, err := s.users.GetUser(ctx, sess.Username); err != nil {
		if errors.Is(err, users.ErrUserNotFound) || errors.Is(err, users.ErrRepositoryInvariantViolated) {
			log.Printf("Auth: session refers to an unusable user, treating as anonymous: %v", err)
			return Result{Session: sess}, nil
		}
		return Result{Session: sess}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return Result{Authenticated: true, Username: sess.Username, Session: sess}, nil
}

// ListUsers returns all registered users.
func (s *Service) ListUsers(ctx context.Context) ([]entities.User, error) {
	return s.users.ListUsers(ctx)
}

// establish rotates the session id, attaches username and persists the
// session. If persisting fails the handle is reverted to anonymous.
func (s *Service) establish(ctx context.Context, sess *entities.Session, username string) (Result, error) {
	if err := s.store.Renew(ctx, sess); err != nil {
		return Result{Session: sess}, err
	}

	s.sessions.Attach(sess, username)
	if err := s.store.Save(ctx, sess); err != nil {
		sess.Authenticated = false
		sess.Username = ""
		return Result{Session: sess}, err
	}

	return Result{Authenticated: true, Username: username, Session: sess}, nil
}

func (s *Service) ensureSession(ctx context.Context, sess *entities.Session) (*entities.Session, error) {
	if sess != nil && !sess.Destroyed {
		return sess, nil
	}
	return s.store.CreateOrLoad(ctx, "")
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err != nil {
			log.Printf("Auth: failed to prepare placeholder hash: %v", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
