// Package sessionstore persists session state keyed by an opaque session id.
//
// A Store sits on top of any scs.Store backend. Session fields are encoded
// with scs.GobCodec, so rows written here have the same layout scs itself
// would write. Two backends ship with the package:
//
//   - SQLiteBackend: scs/sqlite3store over the application database. Expired
//     rows are invisible to reads and removed by DeleteExpired, which the
//     scheduler runs on a cron schedule.
//   - RedisBackend: one key per session with a native TTL.
//
// Writes to the same id are not coordinated in-process. Both backends upsert
// atomically (REPLACE INTO / SET), so concurrent saves resolve last-write-wins.
package sessionstore
