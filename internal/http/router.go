package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/sessiongate/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	// Health endpoints stay outside the session middleware so a broken
	// session store is reported instead of failing the probe with 500.
	health := NewHealthController(cfg.Database, cfg.Sessions, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	authMiddleware := auth.NewMiddleware(cfg.AuthService, cfg.Cookies)
	authController := auth.NewAuthController(cfg.AuthService, authMiddleware, cfg.Cookies)

	authController.RegisterRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	return router
}
