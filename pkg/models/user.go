package models

// User is a directory entry. PasswordHash is omitted from listings.
type User struct {
	ID           string `json:"user"`
	PasswordHash string `json:"passwd_hash,omitempty"`
}
