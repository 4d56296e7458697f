package sessionstore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// idBytes gives 256 bits of entropy per session id.
const idBytes = 32

// GenerateID returns a new random URL-safe session id.
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
