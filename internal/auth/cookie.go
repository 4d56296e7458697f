package auth

import (
	"net/http"
	"time"

	"github.com/mrlokans/sessiongate/internal/config"
	"github.com/mrlokans/sessiongate/internal/entities"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// NewCookieOptions derives cookie settings from the auth config.
func NewCookieOptions(cfg config.Auth) CookieOptions {
	name := cfg.CookieName
	if name == "" {
		name = "session"
	}
	return CookieOptions{
		Name:     name,
		Path:     "/",
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// WriteSessionCookie points the client at sess. A destroyed session clears
// the cookie instead.
func WriteSessionCookie(w http.ResponseWriter, sess *entities.Session, opts CookieOptions) {
	if sess == nil || sess.Destroyed || sess.ID == "" {
		ClearSessionCookie(w, opts)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    sess.ID,
		Path:     opts.Path,
		Expires:  sess.ExpiresAt,
		MaxAge:   maxAge(sess.ExpiresAt),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     opts.Path,
		Expires:  time.Unix(1, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

func maxAge(expiresAt time.Time) int {
	secs := int(time.Until(expiresAt).Seconds())
	if secs < 1 {
		return -1
	}
	return secs
}
