package security

import "time"

// testSigningSecret is a fixed HS256 secret for unit tests only. Do not use in production.
const testSigningSecret = "test-signing-secret-0123456789abcdef"

// NewTestTokenCodec returns a TokenCodec with a fixed secret, for tests in other packages.
// nowF may be nil to use the wall clock.
func NewTestTokenCodec(nowF func() time.Time) *TokenCodec {
	c, err := NewTokenCodec([]byte(testSigningSecret))
	if err != nil {
		panic(err)
	}
	if nowF != nil {
		c.nowF = nowF
	}
	return c
}
