package config

import "time"

const (
	// DefaultDatabasePath is the default path for the users and sessions database
	DefaultDatabasePath = "./sessiongate.db"

	// DefaultSessionLifetime is how long a session stays valid after its last renewal
	DefaultSessionLifetime = time.Hour

	// DefaultBcryptCost is the bcrypt work factor for new password hashes
	DefaultBcryptCost = 12
)
