package users

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

const (
	seedPrefix = "seed"
	seedSalt   = "abddeff123"
)

// HashPassword derives the stored hash for a user's password: a hex digest of
// a fixed salt, the user id and the raw password.
//
// This is a fast digest, not a key derivation function.
// TODO: move to a slow KDF once stored hashes can be migrated.
func HashPassword(userID, password string) string {
	sum := blake3.Sum256([]byte(seedPrefix + userID + seedSalt + password))
	return hex.EncodeToString(sum[:])
}
