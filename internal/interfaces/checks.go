package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/sessiongate/internal/auth"
	"github.com/mrlokans/sessiongate/internal/database/users"
	"github.com/mrlokans/sessiongate/internal/http"
	"github.com/mrlokans/sessiongate/internal/scheduler"
	"github.com/mrlokans/sessiongate/internal/sessionstore"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// UserRepository implementations
var _ auth.UserRepository = (*users.Repository)(nil)

// SessionStore implementations
var _ auth.SessionStore = (*sessionstore.Store)(nil)

// =============================================================================
// Session Backends
// =============================================================================

var _ scs.Store = (*sessionstore.SQLiteBackend)(nil)
var _ scs.Store = (*sessionstore.RedisBackend)(nil)
var _ scs.CtxStore = (*sessionstore.RedisBackend)(nil)

// ExpiredSessionDeleter implementations (backends that need reaping)
var _ scheduler.ExpiredSessionDeleter = (*sessionstore.SQLiteBackend)(nil)

// =============================================================================
// Health Checks
// =============================================================================

var _ http.Pinger = (*sessionstore.Store)(nil)
var _ http.Pinger = (*sessionstore.SQLiteBackend)(nil)
var _ http.Pinger = (*sessionstore.RedisBackend)(nil)
