// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - UserRepository: user creation and lookup (internal/auth/service.go)
//   - SessionStore: durable session load/save/destroy/renew (internal/auth/service.go)
//
// ## Session Backend Interfaces
//
//   - sessionstore.Backend (scs.Store): raw record persistence (internal/sessionstore/store.go)
//   - ExpiredSessionDeleter: bulk removal of expired records (internal/scheduler/session_reaper.go)
//
// ## Health Interfaces
//
//   - Pinger: backend connectivity (internal/http/health.go)
//
// # Adding a New Session Backend
//
// To keep sessions somewhere else (e.g., Postgres):
//
//  1. Implement scs.Store in internal/sessionstore/
//
//     type PostgresBackend struct { pool *pgxpool.Pool }
//
//     func (b *PostgresBackend) Find(token string) ([]byte, bool, error)
//     func (b *PostgresBackend) Commit(token string, b []byte, expiry time.Time) error
//     func (b *PostgresBackend) Delete(token string) error
//
//     Implement the Ctx variants too so request deadlines reach the backend.
//
//  2. Implement Ping(ctx) for /health and DeleteExpired(ctx) if the backend
//     has no native expiry.
//
//  3. Add a SessionBackend value in internal/config and a case in
//     entrypoint.App.sessionBackend.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
