package sessionstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexedwards/scs/sqlite3store"
)

// SQLiteBackend stores sessions in the "sessions" table through
// scs/sqlite3store. The built-in cleanup goroutine is disabled; expired rows
// are removed by DeleteExpired.
type SQLiteBackend struct {
	*sqlite3store.SQLite3Store
	db *sql.DB
}

// NewSQLiteBackend wraps db. The sessions table must already exist
// (see database.EnsureSessionsTable).
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{
		SQLite3Store: sqlite3store.NewWithCleanupInterval(db, 0),
		db:           db,
	}
}

// DeleteExpired removes every row whose expiry has passed and returns how many
// rows were deleted.
func (b *SQLiteBackend) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := b.db.ExecContext(ctx, "DELETE FROM sessions WHERE julianday('now') >= expiry")
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
