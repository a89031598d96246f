package users

import "errors"

var (
	// ErrNotFound is returned when the user does not exist.
	ErrNotFound = errors.New("user does not exist")

	// ErrMismatch is returned when a password hash does not match the stored one.
	ErrMismatch = errors.New("password not correct")

	// ErrSessionInvalid is returned when a session refers to a user that no longer exists.
	ErrSessionInvalid = errors.New("session does not exist")
)

// AuthFailure describes a rejected authentication attempt. Err carries the
// cause so callers can tell a bad credential from a store failure.
type AuthFailure struct {
	Reason string
	Err    error
}

func (f *AuthFailure) Error() string {
	return f.Reason
}

func (f *AuthFailure) Unwrap() error {
	return f.Err
}
