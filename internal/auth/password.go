package auth

import (
	"sync"

	"seva-backend/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// bcrypt ignores input past 72 bytes; longer secrets are rejected instead.
const maxPasswordBytes = 72

func HashPassword(secret string) (string, error) {
	if secret == "" {
		return "", apperr.Validation("password is required")
	}
	if len(secret) > maxPasswordBytes {
		return "", apperr.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func VerifyPassword(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	return h
})

// burnCompare spends the same time as a real verification when no identity
// matched, so response time does not reveal whether a phone is registered.
func burnCompare(secret string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(secret))
}
