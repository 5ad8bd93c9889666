package security

import (
	"errors"
	"strings"
	"testing"
)

// fastHasher keeps the derivation cheap; the parameters are otherwise identical.
func fastHasher() *Hasher {
	h := NewHasher()
	h.Iterations = 1000
	return h
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := fastHasher()
	salt, digest, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if salt == "" || digest == "" {
		t.Fatal("Hash returned empty salt or digest")
	}
	if len(digest) != 2*KeyLen {
		t.Errorf("digest length = %d, want %d", len(digest), 2*KeyLen)
	}
	if !h.Verify("secret123", salt, digest) {
		t.Fatal("Verify with the original password should succeed")
	}
}

func TestHasher_VerifyWrongPassword(t *testing.T) {
	h := fastHasher()
	salt, digest, _ := h.Hash("secret123")
	if h.Verify("wrong", salt, digest) {
		t.Fatal("Verify with wrong password should fail")
	}
	if h.Verify("secret123", "other-salt", digest) {
		t.Fatal("Verify with wrong salt should fail")
	}
}

func TestHasher_SaltIsFreshPerCall(t *testing.T) {
	h := fastHasher()
	salt1, digest1, _ := h.Hash("same")
	salt2, digest2, _ := h.Hash("same")
	if salt1 == salt2 {
		t.Error("two hashes of the same password share a salt")
	}
	if digest1 == digest2 {
		t.Error("two hashes of the same password share a digest")
	}
}

func TestHasher_MalformedDigest(t *testing.T) {
	h := fastHasher()
	salt, digest, _ := h.Hash("pw")
	cases := map[string]string{
		"empty":     "",
		"not hex":   strings.Repeat("z", 2*KeyLen),
		"truncated": digest[:10],
		"too long":  digest + "00",
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			if h.Verify("pw", salt, d) {
				t.Errorf("Verify(%q) = true, want false", d)
			}
		})
	}
}

func TestHasher_RandomFailure(t *testing.T) {
	h := fastHasher()
	h.randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }
	if _, _, err := h.Hash("pw"); err == nil {
		t.Fatal("Hash should fail when the random source fails")
	}
}

func TestHasher_ProductionParameters(t *testing.T) {
	h := NewHasher()
	d := h.derive("pw1", "c2FsdA==")
	if !h.Verify("pw1", "c2FsdA==", d) {
		t.Fatal("Verify should accept a digest derived with the same parameters")
	}
	if h.Iterations != Iterations {
		t.Errorf("Iterations = %d, want %d", h.Iterations, Iterations)
	}
}
