package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/mrlokans/sessiongate/internal/auth"
	"github.com/mrlokans/sessiongate/internal/config"
	"github.com/mrlokans/sessiongate/internal/database"
	"github.com/mrlokans/sessiongate/internal/database/users"
	http_controllers "github.com/mrlokans/sessiongate/internal/http"
	"github.com/mrlokans/sessiongate/internal/scheduler"
	"github.com/mrlokans/sessiongate/internal/sessionstore"
)

// hstsMaxAge is sent when secure cookies are enabled.
const hstsMaxAge = 31536000

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired components of the gateway.
type App struct {
	Config   *config.Config
	Database *database.Database
	Users    *users.Repository
	Sessions *sessionstore.Store
	Auth     *auth.Service

	// Reaper is nil for backends that expire records on their own.
	Reaper *scheduler.SessionReaper

	closers []func() error
}

// New opens the database and the session backend and wires the auth service.
func New(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app := &App{
		Config:   cfg,
		Database: db,
		Users:    users.NewRepository(db.DB),
		closers:  []func() error{db.Close},
	}

	backend, err := app.sessionBackend()
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := waitForBackend(context.Background(), backend); err != nil {
		app.Close()
		return nil, err
	}

	lifetime := cfg.Auth.SessionLifetime
	if lifetime <= 0 {
		lifetime = config.DefaultSessionLifetime
	}
	app.Sessions = sessionstore.New(backend, lifetime)

	app.Auth = auth.NewService(
		app.Users,
		auth.NewHasher(cfg.Auth.BcryptCost),
		auth.NewSessionManager(cfg.Auth),
		app.Sessions,
	)

	return app, nil
}

func (a *App) sessionBackend() (sessionstore.Backend, error) {
	switch a.Config.Sessions.Backend {
	case config.SessionBackendRedis:
		log.Printf("Session backend: redis at %s", a.Config.Sessions.RedisAddr)
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.Sessions.RedisAddr,
			Password: a.Config.Sessions.RedisPassword,
			DB:       a.Config.Sessions.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		return sessionstore.NewRedisBackend(client, a.Config.Sessions.RedisPrefix), nil

	case config.SessionBackendSQLite, "":
		log.Printf("Session backend: sqlite")
		sqlDB, err := a.Database.SQLDB()
		if err != nil {
			return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
		backend := sessionstore.NewSQLiteBackend(sqlDB)
		a.Reaper = scheduler.NewSessionReaper(backend, a.Config.Sessions.ReapSchedule)
		return backend, nil

	default:
		return nil, fmt.Errorf("unknown session backend %q", a.Config.Sessions.Backend)
	}
}

// backendRetries bounds how long startup waits for the session backend.
var backendRetries uint64 = 5

// waitForBackend pings the session backend with exponential backoff, so the
// gateway can start alongside a Redis that is still coming up.
func waitForBackend(ctx context.Context, backend sessionstore.Backend) error {
	p, ok := backend.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}

	b := retry.WithMaxRetries(backendRetries, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			log.Printf("Session backend not reachable yet: %v", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session backend unavailable: %w", err)
	}
	return nil
}

// Router builds the HTTP router for the app.
func (a *App) Router(version string) *gin.Engine {
	routerCfg := http_controllers.RouterConfig{
		AuthService: a.Auth,
		Database:    a.Database,
		Sessions:    a.Sessions,
		Cookies:     auth.NewCookieOptions(a.Config.Auth),
		Version:     version,
	}
	if a.Config.Auth.SecureCookies {
		routerCfg.HSTSMaxAge = hstsMaxAge
	}
	return http_controllers.NewRouter(routerCfg)
}

// Close releases the session backend and the database, in reverse order of
// opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Error closing resource: %v", err)
		}
	}
	a.closers = nil
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then give in-flight requests the
	// configured timeout to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}

// Run starts the gateway and blocks until it is told to shut down.
func Run(cfg *config.Config, version string) error {
	log.Printf("Starting sessiongate v%s", version)

	if !cfg.Auth.SecureCookies {
		log.Printf("WARNING: AUTH_SECURE_COOKIES is false, session cookies will be sent over plain HTTP")
	}

	app, err := New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if count, err := app.Users.CountUsers(context.Background()); err != nil {
		log.Printf("WARNING: failed to count users: %v", err)
	} else {
		log.Printf("Registered users: %d", count)
	}

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	if app.Reaper != nil {
		if err := app.Reaper.Start(reaperCtx); err != nil {
			return fmt.Errorf("failed to start session reaper: %w", err)
		}
	}

	Serve(app.Router(version), cfg, func(ctx context.Context) {
		if app.Reaper != nil {
			app.Reaper.Stop()
		}
	})
	return nil
}
