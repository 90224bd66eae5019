package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a login failure for the HTTP boundary.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindInvalidRequest
	KindResourceConflict
	KindConnectionUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindResourceConflict:
		return "conflict"
	case KindConnectionUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}

var (
	// ErrConnectionUnavailable is returned when the shared connection was never
	// established or has already been shut down.
	ErrConnectionUnavailable = errors.New("database connection unavailable")
	// ErrStoreUnavailable is returned by the credential store when it cannot run a query.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// AuthError is the typed failure returned by ValidationService.Login.
// Message is safe to show to callers; Err carries server-side detail.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind carried by err. Errors that are not AuthErrors are
// classified by the sentinel they wrap, otherwise KindUnexpected.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, ErrConnectionUnavailable) || errors.Is(err, ErrStoreUnavailable) {
		return KindConnectionUnavailable
	}
	return KindUnexpected
}

func invalidRequest(msg string) *AuthError {
	return &AuthError{Kind: KindInvalidRequest, Message: msg}
}

func resourceConflict(msg string) *AuthError {
	return &AuthError{Kind: KindResourceConflict, Message: msg}
}
