package auth

import (
	"errors"
	"strings"
	"testing"

	"seva-backend/internal/apperr"
)

func TestHashPassword(t *testing.T) {
	h1, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, _ := HashPassword("s3cret-pass")

	if h1 == "s3cret-pass" {
		t.Fatal("hash equals plaintext")
	}
	if h1 == h2 {
		t.Error("two hashes of the same secret should differ (salt)")
	}
	if !VerifyPassword("s3cret-pass", h1) || !VerifyPassword("s3cret-pass", h2) {
		t.Error("VerifyPassword() rejected the right secret")
	}
	if VerifyPassword("wrong", h1) {
		t.Error("VerifyPassword() accepted a wrong secret")
	}
}

func TestHashPassword_Rejects(t *testing.T) {
	for _, pw := range []string{"", strings.Repeat("x", 73)} {
		if _, err := HashPassword(pw); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("HashPassword(len %d) error = %v, want ErrValidation", len(pw), err)
		}
	}
}

func TestVerifyPassword_GarbageHash(t *testing.T) {
	if VerifyPassword("anything", "not-a-bcrypt-hash") {
		t.Error("VerifyPassword() accepted a malformed hash")
	}
}
