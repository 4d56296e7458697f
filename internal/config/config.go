package config

import (
	"time"

	"github.com/spf13/viper"
)

// SessionBackend selects where session records are persisted.
type SessionBackend string

const (
	SessionBackendSQLite SessionBackend = "sqlite" // Sessions table next to users (default)
	SessionBackendRedis  SessionBackend = "redis"  // Redis keys with native TTL
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Sessions
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		SessionLifetime time.Duration // TTL from last renewal
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
		CookieName      string
	}
	Sessions struct {
		Backend       SessionBackend
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisPrefix   string
		ReapSchedule  string // Cron format, SQLite backend only: "*/5 * * * *" = every 5 minutes
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3001)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_session_lifetime", DefaultSessionLifetime.String())
	v.SetDefault("auth_bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_cookie_name", "session")

	// Session store defaults
	v.SetDefault("session_backend", string(SessionBackendSQLite))
	v.SetDefault("session_redis_addr", "localhost:6379")
	v.SetDefault("session_redis_password", "")
	v.SetDefault("session_redis_db", 0)
	v.SetDefault("session_redis_prefix", "session:")
	v.SetDefault("session_reap_schedule", "*/5 * * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
			CookieName:      v.GetString("AUTH_COOKIE_NAME"),
		},
		Sessions: Sessions{
			Backend:       SessionBackend(v.GetString("SESSION_BACKEND")),
			RedisAddr:     v.GetString("SESSION_REDIS_ADDR"),
			RedisPassword: v.GetString("SESSION_REDIS_PASSWORD"),
			RedisDB:       v.GetInt("SESSION_REDIS_DB"),
			RedisPrefix:   v.GetString("SESSION_REDIS_PREFIX"),
			ReapSchedule:  v.GetString("SESSION_REAP_SCHEDULE"),
		},
	}
}
