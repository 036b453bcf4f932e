package tokens

import (
	"crypto/rand"
	"encoding/base64"
)

// NewOpaqueToken returns a 256-bit random value for use as a refresh token.
// At this entropy a value collision is negligible, so callers do not retry
// on insert.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
