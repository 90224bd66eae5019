package core

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode/utf16"

	"golang.org/x/crypto/pbkdf2"
)

// Digest schemes accepted by NewDigester.
const (
	DigestLegacy = "legacy"
	DigestSHA256 = "sha256"
	DigestPBKDF2 = "pbkdf2"
)

const (
	pbkdf2Iterations = 210000
	pbkdf2KeyLen     = 32
)

// Digester turns a submitted secret into the comparable form kept in the store.
// The empty secret has no digest and maps to "".
type Digester interface {
	Digest(secret string) string
}

// NewDigester returns the Digester for scheme.
func NewDigester(scheme, salt string) (Digester, error) {
	switch scheme {
	case DigestLegacy, "":
		return LegacyDigester{}, nil
	case DigestSHA256:
		return SHA256Digester{}, nil
	case DigestPBKDF2:
		if salt == "" {
			return nil, fmt.Errorf("pbkdf2 digest requires a salt")
		}
		return PBKDF2Digester{Salt: []byte(salt)}, nil
	default:
		return nil, fmt.Errorf("unknown digest scheme %q", scheme)
	}
}

// LegacyDigester reproduces the 32-bit string hash used by records written by the
// previous system: h = 31*h + c over UTF-16 code units, rendered in decimal.
// It is not a password hash and exists only so those records keep validating.
type LegacyDigester struct{}

func (LegacyDigester) Digest(secret string) string {
	if secret == "" {
		return ""
	}
	var h int32
	for _, c := range utf16.Encode([]rune(secret)) {
		h = 31*h + int32(c)
	}
	return strconv.FormatInt(int64(h), 10)
}

// SHA256Digester renders the hex SHA-256 of the secret.
type SHA256Digester struct{}

func (SHA256Digester) Digest(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// PBKDF2Digester derives a key with a server-wide salt so equal secrets keep
// producing equal digests.
type PBKDF2Digester struct {
	Salt []byte
}

func (d PBKDF2Digester) Digest(secret string) string {
	if secret == "" {
		return ""
	}
	key := pbkdf2.Key([]byte(secret), d.Salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return base64.RawStdEncoding.EncodeToString(key)
}

// digestEqual is exact equality without early exit.
func digestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
