// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.CreateUser(ctx, "alice", passwordHash)
//	user, err = repo.GetUser(ctx, "alice")
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/sessiongate/internal/entities"
)

// usernamePattern allow-lists letters, digits, space and common punctuation.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9! '@#$%^&*()_+{}\[\]:;<>,.?~\\/-]+$`)

var (
	ErrUserNotFound                = errors.New("user not found")
	ErrDuplicateUser               = errors.New("user already exists")
	ErrInvalidUsername             = errors.New("username contains characters outside the allowed set")
	ErrRepositoryInvariantViolated = errors.New("more than one user matched a unique username")
)

// ValidUsername reports whether username is non-empty and uses only allowed characters.
func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user. Uniqueness is enforced by the unique index on
// username, so of two concurrent inserts for the same name exactly one wins.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error) {
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUser retrieves the single user with exactly this username.
func (r *Repository) GetUser(ctx context.Context, username string) (*entities.User, error) {
	found, err := r.FindUsers(ctx, username)
	if err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: %d rows for %q", ErrRepositoryInvariantViolated, len(found), username)
	}
}

// FindUsers returns every row matching username. More than one result means
// the unique index has been bypassed; two rows are enough to detect that.
func (r *Repository) FindUsers(ctx context.Context, username string) ([]entities.User, error) {
	var found []entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Limit(2).Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return found, nil
}

// ListUsers returns all users ordered by creation.
func (r *Repository) ListUsers(ctx context.Context) ([]entities.User, error) {
	var all []entities.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&all).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return all, nil
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
