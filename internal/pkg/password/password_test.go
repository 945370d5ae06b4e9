package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Verify("s3cret!", hash) {
		t.Fatalf("expected password to verify")
	}
	if h.Verify("wrong", hash) {
		t.Fatalf("wrong password verified")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	if _, err := NewHasher(bcrypt.MinCost).Hash("12345"); err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}
