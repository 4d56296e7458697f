package auth

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/sessiongate/internal/config"
	"github.com/mrlokans/sessiongate/internal/database"
	"github.com/mrlokans/sessiongate/internal/database/users"
	"github.com/mrlokans/sessiongate/internal/entities"
	"github.com/mrlokans/sessiongate/internal/sessionstore"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	db     *database.Database
	sqlDB  *sql.DB
	users  *users.Repository
	store  *sessionstore.Store
	svc    *Service
	clock  *testClock
	config config.Auth
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "auth.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.SQLDB()
	require.NoError(t, err)

	cfg := config.Auth{
		SessionLifetime: time.Hour,
		BcryptCost:      bcrypt.MinCost,
		CookieName:      "session",
	}
	clock := &testClock{t: time.Now()}

	repo := users.NewRepository(db.DB)
	store := sessionstore.New(sessionstore.NewSQLiteBackend(sqlDB), cfg.SessionLifetime, sessionstore.WithClock(clock.Now))
	manager := NewSessionManager(cfg, WithSessionClock(clock.Now))

	return &testEnv{
		db:     db,
		sqlDB:  sqlDB,
		users:  repo,
		store:  store,
		svc:    NewService(repo, NewHasher(cfg.BcryptCost), manager, store),
		clock:  clock,
		config: cfg,
	}
}

func (e *testEnv) sessionRecordExists(t *testing.T, id string) bool {
	t.Helper()
	var n int
	require.NoError(t, e.sqlDB.QueryRow("SELECT COUNT(*) FROM sessions WHERE token = ?", id).Scan(&n))
	return n > 0
}

func (e *testEnv) sessionCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.sqlDB.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n))
	return n
}

func TestService_RegisterThenLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"simple", "alice", "secret1"},
		{"with space", "Jane Doe", "p"},
		{"punctuation", "o'neil@example.com", "hunter2"},
		{"symbols", `a_b-c/d\e[f]{g}`, "correct horse battery staple"},
		{"unicode password", "carol", "пароль"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			ctx := context.Background()

			reg, err := env.svc.Register(ctx, RegisterRequest{Username: tt.username, Password: tt.password}, nil)
			require.NoError(t, err)
			assert.True(t, reg.Authenticated)
			assert.Equal(t, tt.username, reg.Username)

			res, err := env.svc.Login(ctx, LoginRequest{Username: tt.username, Password: tt.password}, nil)
			require.NoError(t, err)
			assert.True(t, res.Authenticated)
			assert.Equal(t, tt.username, res.Username)
			require.NotNil(t, res.Session)
			assert.True(t, env.sessionRecordExists(t, res.Session.ID))
		})
	}
}

func TestService_Register_StoresHashNotPlaintext(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)

	user, err := env.users.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2"))
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"missing username", "", "x", ErrMissingUsername},
		{"missing password", "bob", "", ErrMissingPassword},
		{"missing both", "", "", ErrMissingCredentials},
		{"newline in username", "bob\nsmith", "x", ErrInvalidUsername},
		{"non-ascii username", "bøb", "x", ErrInvalidUsername},
		{"password too long", "bob", strings.Repeat("x", MaxPasswordBytes+1), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			ctx := context.Background()

			res, err := env.svc.Register(ctx, RegisterRequest{Username: tt.username, Password: tt.password}, nil)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.False(t, res.Authenticated)

			all, err := env.users.ListUsers(ctx)
			require.NoError(t, err)
			assert.Empty(t, all, "no user should be created")
			assert.Zero(t, env.sessionCount(t), "no session should be persisted")
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Register(ctx, RegisterRequest{Username: "bob", Password: "p"}, nil)
	require.NoError(t, err)
	assert.True(t, first.Authenticated)

	second, err := env.svc.Register(ctx, RegisterRequest{Username: "bob", Password: "p"}, nil)
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.ErrorIs(t, err, ErrUserCreationFailed)
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, second.Authenticated)
	require.NotNil(t, second.Session)
	assert.False(t, env.sessionRecordExists(t, second.Session.ID))
}

func TestService_Register_Concurrent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	const workers = 4
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Register(ctx, RegisterRequest{Username: "racer", Password: "p"}, nil)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicateUser):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)

	n, err := env.users.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestService_Login_WrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)
	before := env.sessionCount(t)

	res, err := env.svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"}, nil)

	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.False(t, res.Authenticated)
	assert.Empty(t, res.Username)
	require.NotNil(t, res.Session)
	assert.False(t, env.svc.Sessions().IsAuthenticated(res.Session))
	assert.Equal(t, before, env.sessionCount(t), "failed login must not write a session")
}

func TestService_Login_FailureKeepsExistingLogin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterRequest{Username: "bob", Password: "hunter2"}, nil)
	require.NoError(t, err)
	reg, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)
	sess := reg.Session
	id := sess.ID

	res, err := env.svc.Login(ctx, LoginRequest{Username: "bob", Password: "wrong"}, sess)

	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.False(t, res.Authenticated)
	require.Same(t, sess, res.Session)
	assert.Equal(t, id, sess.ID, "a failed login does not rotate the session id")
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "alice", sess.Username)

	access, err := env.svc.CheckAccess(ctx, id)
	require.NoError(t, err)
	assert.True(t, access.Authenticated)
	assert.Equal(t, "alice", access.Username)
}

func TestService_Login_UnknownUserMatchesWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)

	_, wrongPassword := env.svc.Login(ctx, LoginRequest{Username: "alice", Password: "nope"}, nil)
	_, unknownUser := env.svc.Login(ctx, LoginRequest{Username: "mallory", Password: "secret1"}, nil)

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestService_Login_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     LoginRequest
		wantErr error
	}{
		{"missing username", LoginRequest{Password: "x"}, ErrMissingUsername},
		{"missing password", LoginRequest{Username: "alice"}, ErrMissingPassword},
		{"missing both", LoginRequest{}, ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.svc.Login(ctx, tt.req, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.False(t, res.Authenticated)
		})
	}
}

func TestService_Login_DisallowedUsernameIsAuthenticationFailure(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.svc.Login(context.Background(), LoginRequest{Username: "bøb", Password: "x"}, nil)

	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.False(t, errors.Is(err, ErrInvalidInput))
}

func TestService_Login_RotatesSessionID(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)

	sess, err := env.store.CreateOrLoad(ctx, "attacker-chosen-id")
	require.NoError(t, err)
	require.NoError(t, env.store.Save(ctx, sess))

	res, err := env.svc.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"}, sess)
	require.NoError(t, err)

	assert.NotEqual(t, "attacker-chosen-id", res.Session.ID)
	assert.False(t, env.sessionRecordExists(t, "attacker-chosen-id"))

	old, err := env.svc.CheckAccess(ctx, "attacker-chosen-id")
	require.NoError(t, err)
	assert.False(t, old.Authenticated)
}

func TestService_Logout(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)
	id := reg.Session.ID
	require.True(t, env.sessionRecordExists(t, id))

	res, err := env.svc.Logout(ctx, reg.Session)
	require.NoError(t, err)
	assert.False(t, res.Authenticated)
	assert.True(t, reg.Session.Destroyed)
	assert.Empty(t, reg.Session.Username)

	assert.False(t, env.sessionRecordExists(t, id), "durable record must be gone")

	access, err := env.svc.CheckAccess(ctx, id)
	require.NoError(t, err)
	assert.False(t, access.Authenticated)
}

func TestService_Logout_Idempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Logout(ctx, nil)
	require.NoError(t, err)
	assert.False(t, res.Authenticated)

	sess, err := env.store.CreateOrLoad(ctx, "")
	require.NoError(t, err)

	_, err = env.svc.Logout(ctx, sess)
	require.NoError(t, err)
	_, err = env.svc.Logout(ctx, sess)
	require.NoError(t, err)
}

func TestService_AliceScenario(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)
	require.True(t, reg.Authenticated)

	login, err := env.svc.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"}, reg.Session)
	require.NoError(t, err)
	assert.True(t, login.Authenticated)
	assert.Equal(t, "alice", login.Username)

	bad, err := env.svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"}, nil)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.False(t, bad.Authenticated)

	id := login.Session.ID
	out, err := env.svc.Logout(ctx, login.Session)
	require.NoError(t, err)
	assert.False(t, out.Authenticated)

	access, err := env.svc.CheckAccess(ctx, id)
	require.NoError(t, err)
	assert.False(t, access.Authenticated)
}

func TestService_CheckAccess(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	t.Run("empty id is anonymous", func(t *testing.T) {
		res, err := env.svc.CheckAccess(ctx, "")
		require.NoError(t, err)
		assert.False(t, res.Authenticated)
		assert.Nil(t, res.Session)
	})

	t.Run("unknown id is anonymous and bound to the id", func(t *testing.T) {
		res, err := env.svc.CheckAccess(ctx, "never-issued")
		require.NoError(t, err)
		assert.False(t, res.Authenticated)
		require.NotNil(t, res.Session)
		assert.Equal(t, "never-issued", res.Session.ID)
	})

	t.Run("logged in session is authenticated", func(t *testing.T) {
		reg, err := env.svc.Register(ctx, RegisterRequest{Username: "dave", Password: "p"}, nil)
		require.NoError(t, err)

		res, err := env.svc.CheckAccess(ctx, reg.Session.ID)
		require.NoError(t, err)
		assert.True(t, res.Authenticated)
		assert.Equal(t, "dave", res.Username)
	})
}

func TestService_CheckAccess_Expiry(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)

	env.clock.Advance(59 * time.Minute)
	res, err := env.svc.CheckAccess(ctx, reg.Session.ID)
	require.NoError(t, err)
	assert.True(t, res.Authenticated)

	env.clock.Advance(time.Minute)
	res, err = env.svc.CheckAccess(ctx, reg.Session.ID)
	require.NoError(t, err)
	assert.False(t, res.Authenticated)
}

func TestService_CheckAccess_DeletedUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)

	require.NoError(t, env.db.DB.Where("username = ?", "alice").Delete(&entities.User{}).Error)

	res, err := env.svc.CheckAccess(ctx, reg.Session.ID)
	require.NoError(t, err)
	assert.False(t, res.Authenticated)
}

// stubUsers lets tests force repository failures.
type stubUsers struct {
	user   *entities.User
	getErr error
}

func (s *stubUsers) CreateUser(_ context.Context, username, passwordHash string) (*entities.User, error) {
	return &entities.User{Username: username, PasswordHash: passwordHash}, nil
}

func (s *stubUsers) GetUser(context.Context, string) (*entities.User, error) {
	return s.user, s.getErr
}

func (s *stubUsers) ListUsers(context.Context) ([]entities.User, error) {
	return nil, nil
}

// flakyStore wraps a real store and fails selected operations.
type flakyStore struct {
	SessionStore
	saveErr    error
	destroyErr error
}

func (f *flakyStore) Save(ctx context.Context, sess *entities.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.SessionStore.Save(ctx, sess)
}

func (f *flakyStore) Destroy(ctx context.Context, id string) error {
	if f.destroyErr != nil {
		return f.destroyErr
	}
	return f.SessionStore.Destroy(ctx, id)
}

func TestService_Login_RepositoryInvariantViolated(t *testing.T) {
	env := setupTestEnv(t)
	repo := &stubUsers{getErr: users.ErrRepositoryInvariantViolated}
	svc := NewService(repo, NewHasher(bcrypt.MinCost), env.svc.Sessions(), env.store)

	res, err := svc.Login(context.Background(), LoginRequest{Username: "eve", Password: "p"}, nil)

	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.False(t, errors.Is(err, ErrRepositoryInvariantViolated), "integrity errors must not leak to the caller")
	assert.False(t, res.Authenticated)
}

func TestService_Login_RepositoryFailure(t *testing.T) {
	env := setupTestEnv(t)
	repo := &stubUsers{getErr: errors.New("disk I/O error")}
	svc := NewService(repo, NewHasher(bcrypt.MinCost), env.svc.Sessions(), env.store)

	res, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "p"}, nil)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, res.Authenticated)
}

func TestService_Login_SaveFailureLeavesAnonymous(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	hasher := NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret1")
	require.NoError(t, err)
	repo := &stubUsers{user: &entities.User{Username: "alice", PasswordHash: hash}}
	store := &flakyStore{SessionStore: env.store, saveErr: sessionstore.ErrStoreUnavailable}
	svc := NewService(repo, hasher, env.svc.Sessions(), store)

	res, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "secret1"}, nil)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, res.Authenticated)
	require.NotNil(t, res.Session)
	assert.False(t, svc.Sessions().IsAuthenticated(res.Session))
}

func TestService_Logout_DestroyFailureStillClears(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)

	store := &flakyStore{SessionStore: env.store, destroyErr: sessionstore.ErrStoreUnavailable}
	svc := NewService(env.users, NewHasher(bcrypt.MinCost), env.svc.Sessions(), store)

	res, err := svc.Logout(ctx, reg.Session)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, res.Authenticated)
	assert.True(t, reg.Session.Destroyed)
	assert.False(t, svc.Sessions().IsAuthenticated(reg.Session))
}

func TestService_Logout_DestroysBeforeClearing(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"}, nil)
	require.NoError(t, err)

	var clearedAtDestroy bool
	store := &orderingStore{SessionStore: env.store, onDestroy: func() {
		clearedAtDestroy = reg.Session.Destroyed
	}}
	svc := NewService(env.users, NewHasher(bcrypt.MinCost), env.svc.Sessions(), store)

	_, err = svc.Logout(ctx, reg.Session)
	require.NoError(t, err)
	assert.False(t, clearedAtDestroy, "handle must still be live while the record is destroyed")
	assert.True(t, reg.Session.Destroyed)
}

type orderingStore struct {
	SessionStore
	onDestroy func()
}

func (o *orderingStore) Destroy(ctx context.Context, id string) error {
	o.onDestroy()
	return o.SessionStore.Destroy(ctx, id)
}
