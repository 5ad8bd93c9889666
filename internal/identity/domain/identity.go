package domain

import "time"

// Credential is a local username/password identity. Hash and Salt are produced by
// security.Hasher; the plaintext password is never stored.
type Credential struct {
	ID        string
	Username  string
	Email     string
	Hash      string
	Salt      string
	CreatedAt time.Time
}
