package core

import (
	"crypto/rand"
	"encoding/base32"
)

// newSessionID returns a 32-byte random identifier, base32 encoded without padding.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}
