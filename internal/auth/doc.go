// Package auth provides user registration, login and logout on top of
// server-side sessions.
//
// The pieces, leaf first:
//   - Hasher: bcrypt hashing and verification of passwords
//   - SessionManager: in-memory attach/check/clear of a session handle
//   - Service: register, login, logout and access checks, combining the user
//     repository, the hasher, the session manager and the session store
//   - Middleware and AuthController: the Gin adapter (cookie in, handle in
//     context, JSON out)
//
// Session handles are passed explicitly. Nothing is stored in globals, and
// the Gin context only carries the handle loaded for the current request.
//
// # Configuration
//
//	AUTH_SESSION_LIFETIME=1h     # TTL from last login
//	AUTH_BCRYPT_COST=12          # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true     # HTTPS-only cookies
//	AUTH_COOKIE_NAME=session
//
// # Logout ordering
//
// Logout removes the durable record first and clears the handle second. If
// the handle were cleared first and the store delete then failed, the
// client's cookie would still map to a live record.
//
// # Usage
//
//	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
//	sessions := auth.NewSessionManager(cfg.Auth)
//	svc := auth.NewService(usersRepo, hasher, sessions, store)
//	mw := auth.NewMiddleware(svc, auth.NewCookieOptions(cfg.Auth))
//	auth.NewAuthController(svc, mw, auth.NewCookieOptions(cfg.Auth)).RegisterRoutes(router)
package auth
