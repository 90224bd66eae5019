package core

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
)

const maxUsernameLen = 255

// conflictMessage is shared by unknown-user and wrong-secret failures.
const conflictMessage = "unable to validate user credentials"

// ValidationService decides whether submitted credentials match a stored record.
// It compares digests computed by the caller and never hashes on its own.
type ValidationService struct {
	users UserRepository
	now   func() time.Time
}

func NewValidationService(users UserRepository) *ValidationService {
	return &ValidationService{users: users, now: time.Now}
}

// Login performs one lookup and one comparison. Failures are *AuthError values.
func (s *ValidationService) Login(ctx context.Context, username, digest string) (Principal, error) {
	if err := validateCredentials(username, digest); err != nil {
		return Principal{}, err
	}

	u, ok, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		kind := KindUnexpected
		if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrConnectionUnavailable) {
			kind = KindConnectionUnavailable
		}
		return Principal{}, &AuthError{Kind: kind, Message: "credential lookup failed", Err: err}
	}
	if !ok || u == nil {
		return Principal{}, resourceConflict(conflictMessage)
	}
	if !digestEqual(digest, u.PasswordDigest) {
		return Principal{}, resourceConflict(conflictMessage)
	}

	return Principal{
		Username:        u.Username,
		Role:            u.Role,
		AuthenticatedAt: s.now().UTC(),
	}, nil
}

func validateCredentials(username, digest string) error {
	switch {
	case strings.TrimSpace(username) == "":
		return invalidRequest("username is required")
	case digest == "":
		return invalidRequest("password is required")
	case len(username) > maxUsernameLen:
		return invalidRequest("username is too long")
	case strings.IndexFunc(username, unicode.IsControl) >= 0:
		return invalidRequest("username contains invalid characters")
	}
	return nil
}
