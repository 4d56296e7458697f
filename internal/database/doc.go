// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, migrations, sessions table
//	└── users/           # User records (create, lookup, enumerate)
//
// Users are managed through GORM. The sessions table is plain SQL because it
// is read and written by scs/sqlite3store through the same *sql.DB:
//
//	db, err := database.NewDatabase("./sessiongate.db")
//	usersRepo := users.NewRepository(db.DB)
//	sqlDB, _ := db.SQLDB()
//	backend := sessionstore.NewSQLiteBackend(sqlDB)
package database
