package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/sessiongate/internal/config"
)

// MaxPasswordBytes is bcrypt's input limit; longer passwords would be
// silently truncated, so they are rejected instead.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt. The salt is generated per
// call and embedded in the digest together with the cost.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. Costs outside bcrypt's range fall back to the
// configured default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = config.DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the work factor used for new digests.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a bcrypt digest of password.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches digest. A malformed digest is a
// mismatch.
func (h *Hasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
