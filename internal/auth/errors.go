package auth

import (
	"errors"
	"fmt"

	"github.com/mrlokans/sessiongate/internal/database/users"
	"github.com/mrlokans/sessiongate/internal/sessionstore"
)

// ErrInvalidInput is the parent of every validation error. Validation errors
// are returned before any storage call.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrMissingCredentials = fmt.Errorf("%w: please provide a username and a password", ErrInvalidInput)
	ErrMissingUsername    = fmt.Errorf("%w: please provide a username", ErrInvalidInput)
	ErrMissingPassword    = fmt.Errorf("%w: please provide a password", ErrInvalidInput)
	ErrInvalidUsername    = fmt.Errorf("%w: %w", ErrInvalidInput, users.ErrInvalidUsername)
	ErrPasswordTooLong    = fmt.Errorf("%w: password exceeds maximum length of 72 bytes", ErrInvalidInput)
)

var (
	ErrDuplicateUser      = users.ErrDuplicateUser
	ErrUserCreationFailed = errors.New("failed to create user")

	// ErrAuthenticationFailed covers unknown user, wrong password and ambiguous
	// matches alike, so callers cannot tell which field was wrong.
	ErrAuthenticationFailed = errors.New("authentication failed")

	ErrStoreUnavailable            = sessionstore.ErrStoreUnavailable
	ErrRepositoryInvariantViolated = users.ErrRepositoryInvariantViolated
)
