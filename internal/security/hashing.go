package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing any of them invalidates every stored digest.
const (
	// SaltSize is the number of random bytes in a salt before base64 encoding.
	SaltSize = 128
	// Iterations is the PBKDF2 iteration count.
	Iterations = 100000
	// KeyLen is the derived digest length in bytes (hex-encoded to 128 chars).
	KeyLen = 64
)

// Hasher derives and verifies password digests using PBKDF2-HMAC-SHA512 with a
// per-credential random salt. Callers must not log or persist plaintext passwords.
type Hasher struct {
	Iterations int
	randRead   func([]byte) (int, error)
}

// NewHasher returns a Hasher using the fixed production parameters.
func NewHasher() *Hasher {
	return &Hasher{Iterations: Iterations, randRead: rand.Read}
}

// Hash generates a fresh salt and derives the digest for password.
// Returns the salt (base64) and the digest (hex), both suitable for storage.
func (h *Hasher) Hash(password string) (salt, digest string, err error) {
	b := make([]byte, SaltSize)
	if _, err := h.randRead(b); err != nil {
		return "", "", err
	}
	salt = base64.StdEncoding.EncodeToString(b)
	return salt, h.derive(password, salt), nil
}

// Verify re-derives the digest for password and salt and compares it with digest
// in constant time. A malformed stored digest is reported as a mismatch.
func (h *Hasher) Verify(password, salt, digest string) bool {
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) != KeyLen {
		return false
	}
	got, _ := hex.DecodeString(h.derive(password, salt))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// derive keys PBKDF2 on the encoded salt string, matching digests written by
// earlier deployments that treated the base64 text itself as the salt.
func (h *Hasher) derive(password, salt string) string {
	iter := h.Iterations
	if iter <= 0 {
		iter = Iterations
	}
	dk := pbkdf2.Key([]byte(password), []byte(salt), iter, KeyLen, sha512.New)
	return hex.EncodeToString(dk)
}
