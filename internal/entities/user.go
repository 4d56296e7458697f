package entities

import (
	"time"
)

// User is a registered account. Records are created once at registration and
// never updated.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"` // bcrypt digest, never serialized
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
