package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/sessiongate/internal/entities"
)

// sqliteParams are appended to the database path. Busy timeout and immediate
// transactions let concurrent registrations queue on the write lock instead of
// failing with SQLITE_BUSY.
const sqliteParams = "_busy_timeout=5000&_journal=WAL&_txlock=immediate"

// sessionsSchema matches the table layout expected by scs/sqlite3store.
const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

type Database struct {
	DB *gorm.DB
}

type Option func(*gorm.Config)

// WithLogLevel overrides the gorm log level (tests use logger.Silent).
func WithLogLevel(level logger.LogLevel) Option {
	return func(c *gorm.Config) {
		c.Logger = logger.Default.LogMode(level)
	}
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	for _, opt := range opts {
		opt(gormCfg)
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := EnsureSessionsTable(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// EnsureSessionsTable creates the sessions table used by the SQLite session
// backend if it does not exist yet.
func EnsureSessionsTable(sqlDB *sql.DB) error {
	_, err := sqlDB.Exec(sessionsSchema)
	return err
}

// SQLDB returns the underlying connection pool, shared with the session store.
func (d *Database) SQLDB() (*sql.DB, error) {
	return d.DB.DB()
}

func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + sqliteParams
	}
	return dbPath + "?" + sqliteParams
}
