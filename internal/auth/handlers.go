package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service    *Service
	middleware *Middleware
	cookies    CookieOptions
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, middleware *Middleware, cookies CookieOptions) *AuthController {
	return &AuthController{
		service:    service,
		middleware: middleware,
		cookies:    cookies,
	}
}

// RegisterRoutes registers authentication routes on the router. Logout is
// kept outside the session-loading middleware so a client can always drop
// its cookie, even while the session store is down.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple sign-out links

	loaded := router.Group("", ac.middleware.Handler())
	loaded.GET("/", ac.Status)
	loaded.POST("/register", ac.Register)
	loaded.POST("/login", ac.Login)
	loaded.GET("/members", ac.middleware.RequireAuth(), ac.Members)
}

// Status reports whether the current session is logged in.
func (ac *AuthController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authenticated": IsAuthenticated(c),
		"username":      GetUsername(c),
	})
}

// Register handles the sign-up form submission.
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	result, err := ac.service.Register(c.Request.Context(), req, GetSession(c))
	if err != nil {
		ac.fail(c, err)
		return
	}

	ac.writeCookie(c, result)
	c.JSON(http.StatusCreated, gin.H{
		"authenticated": true,
		"username":      result.Username,
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	result, err := ac.service.Login(c.Request.Context(), req, GetSession(c))
	if err != nil {
		ac.fail(c, err)
		return
	}

	ac.writeCookie(c, result)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"username":      result.Username,
	})
}

// Logout destroys the session named by the cookie without loading it first.
// The cookie is cleared even when the store could not remove the record.
func (ac *AuthController) Logout(c *gin.Context) {
	sess := GetSession(c)
	if sess == nil {
		sess = ac.middleware.cookieSession(c)
	}

	_, err := ac.service.Logout(c.Request.Context(), sess)
	ClearSessionCookie(c.Writer, ac.cookies)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":         "failed to destroy session",
			"authenticated": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// Members is the protected landing page.
func (ac *AuthController) Members(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  "Hello, " + GetUsername(c) + "!",
		"username": GetUsername(c),
	})
}

func (ac *AuthController) writeCookie(c *gin.Context, result Result) {
	if result.Session == nil {
		return
	}
	WriteSessionCookie(c.Writer, result.Session, ac.cookies)
}

// fail maps service errors to HTTP responses. Authentication failures get one
// generic message regardless of which credential was wrong.
func (ac *AuthController) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrDuplicateUser):
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create user."})
	case errors.Is(err, ErrAuthenticationFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	default:
		log.Printf("Auth: request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
