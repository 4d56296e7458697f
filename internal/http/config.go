package http

import (
	"github.com/mrlokans/sessiongate/internal/auth"
	"github.com/mrlokans/sessiongate/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	AuthService *auth.Service
	Database    *database.Database
	Sessions    Pinger

	// Cookie settings for the session cookie
	Cookies auth.CookieOptions

	// HSTS max-age in seconds; zero disables the header
	HSTSMaxAge int

	// Application info
	Version string
}
