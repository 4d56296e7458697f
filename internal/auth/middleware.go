package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sessiongate/internal/entities"
)

// Context keys for session data
const (
	ContextKeySession  = "auth_session"
	ContextKeyUsername = "auth_username"
)

// Middleware loads the session for every request and guards protected routes.
type Middleware struct {
	service *Service
	cookies CookieOptions
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, cookies CookieOptions) *Middleware {
	return &Middleware{
		service: service,
		cookies: cookies,
	}
}

// Handler returns a Gin middleware that resolves the session cookie into a
// session handle and stores it in the Gin context. A store failure aborts the
// request with 500 rather than treating the client as anonymous.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := m.service.CheckAccess(c.Request.Context(), m.cookieValue(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "session store unavailable",
			})
			return
		}

		if result.Session != nil {
			c.Set(ContextKeySession, result.Session)
		}
		if result.Authenticated {
			c.Set(ContextKeyUsername, result.Username)
		}
		c.Next()
	}
}

func (m *Middleware) cookieValue(c *gin.Context) string {
	cookie, err := c.Request.Cookie(m.cookies.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// cookieSession returns an unloaded handle bound to the cookie's session id,
// or nil when the request carries no session cookie.
func (m *Middleware) cookieSession(c *gin.Context) *entities.Session {
	id := m.cookieValue(c)
	if id == "" {
		return nil
	}
	return &entities.Session{ID: id}
}

// RequireAuth returns a middleware that rejects anonymous requests with 401.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// GetSession retrieves the session handle loaded by Handler, or nil.
func GetSession(c *gin.Context) *entities.Session {
	if v, exists := c.Get(ContextKeySession); exists {
		if sess, ok := v.(*entities.Session); ok {
			return sess
		}
	}
	return nil
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// IsAuthenticated returns true if the request carries an authenticated session.
func IsAuthenticated(c *gin.Context) bool {
	return GetUsername(c) != ""
}
