// Package users is the user directory and authenticator.
//
// A Directory is composed of two providers queried in order: a built-in
// provider holding the administrator account in memory, and a provider backed
// by the users table. The administrator is therefore always present, is never
// written to the store, and cannot be shadowed by a stored row.
package users

import (
	"context"
	"crypto/subtle"
	"fmt"

	"catalogue/pkg/log"
	"catalogue/pkg/models"
	"catalogue/pkg/recordstore"
)

// AdminUser is the id of the built-in administrator.
const AdminUser = "admin"

// Schema creates the users table.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    user        TEXT PRIMARY KEY,
    passwd_hash TEXT NOT NULL
);
`

type credential struct {
	user     string
	password string
}

var builtinCredentials = []credential{
	{user: AdminUser, password: "letmein"},
}

// Directory looks users up across its providers and verifies their passwords.
type Directory struct {
	builtin *builtinProvider
	stored  *storeProvider
}

// Open opens the directory on the database file at path.
func Open(ctx context.Context, path string) (*Directory, error) {
	store, err := recordstore.Open(ctx, path, Schema)
	if err != nil {
		return nil, err
	}

	builtin := newBuiltinProvider(builtinCredentials)
	return &Directory{
		builtin: builtin,
		stored:  &storeProvider{store: store, reserved: builtin.order},
	}, nil
}

// Close releases the underlying store handle.
func (d *Directory) Close() error {
	return d.stored.store.Close()
}

func (d *Directory) providers() []Provider {
	return []Provider{d.builtin, d.stored}
}

// Get returns the user, or nil when no provider knows it.
func (d *Directory) Get(ctx context.Context, userID string) (*models.User, error) {
	log.Debug().Str("user", userID).Msg("Retrieving user")

	for _, provider := range d.providers() {
		user, err := provider.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, nil
}

// List returns the stored users followed by the built-in ones. Password
// hashes are not included.
func (d *Directory) List(ctx context.Context) ([]models.User, error) {
	log.Debug().Msg("Listing users")

	stored, err := d.stored.List(ctx)
	if err != nil {
		return nil, err
	}

	builtin, err := d.builtin.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(stored, builtin...), nil
}

// Add stores a user with an already computed password hash. Built-in ids are
// reserved and always conflict.
func (d *Directory) Add(ctx context.Context, userID, passwordHash string) error {
	log.Debug().Str("user", userID).Msg("Adding user")

	if d.builtin.has(userID) {
		return fmt.Errorf("user %q: %w", userID, recordstore.ErrConflict)
	}
	return d.stored.add(ctx, userID, passwordHash)
}

// Register stores a user, hashing the raw password.
func (d *Directory) Register(ctx context.Context, userID, password string) error {
	return d.Add(ctx, userID, HashPassword(userID, password))
}

// Remove deletes a stored user and returns the number of rows deleted.
// Built-in users cannot be removed.
func (d *Directory) Remove(ctx context.Context, userID string) (int64, error) {
	log.Debug().Str("user", userID).Msg("Removing user")

	if d.builtin.has(userID) {
		return 0, nil
	}
	return d.stored.remove(ctx, userID)
}

// CheckPassword compares an already hashed password with the stored hash. It
// returns true only on an exact match, ErrNotFound for unknown users and
// ErrMismatch otherwise.
func (d *Directory) CheckPassword(ctx context.Context, userID, passwordHash string) (bool, error) {
	log.Debug().Str("user", userID).Msg("Checking password")

	user, err := d.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, fmt.Errorf("%w - %s", ErrNotFound, userID)
	}

	if subtle.ConstantTimeCompare([]byte(user.PasswordHash), []byte(passwordHash)) != 1 {
		return false, fmt.Errorf("%w - %s", ErrMismatch, userID)
	}
	return true, nil
}

// Authenticate hashes the raw password and checks it. Rejections are returned
// as an AuthFailure value; on success the user id and computed hash are returned.
func (d *Directory) Authenticate(ctx context.Context, userID, password string) (*models.User, *AuthFailure) {
	passwordHash := HashPassword(userID, password)

	if _, err := d.CheckPassword(ctx, userID, passwordHash); err != nil {
		log.Debug().Err(err).Str("user", userID).Msg("Authentication failed")
		return nil, &AuthFailure{Reason: err.Error(), Err: err}
	}

	log.Debug().Str("user", userID).Msg("Authenticated")
	return &models.User{ID: userID, PasswordHash: passwordHash}, nil
}

// Serialize maps a user to its session identity.
func (d *Directory) Serialize(user models.User) string {
	return user.ID
}

// Deserialize resolves a session identity back to the user. It fails with
// ErrSessionInvalid when the user no longer exists.
func (d *Directory) Deserialize(ctx context.Context, sessionID string) (*models.User, error) {
	user, err := d.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w - %s", ErrSessionInvalid, sessionID)
	}
	return user, nil
}
