package identity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPINNotFound        = errors.New("no learner matches that pin")
)

// AuthError is the typed authentication failure returned by the resolver.
// The resolver's state is unchanged when one is returned.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
