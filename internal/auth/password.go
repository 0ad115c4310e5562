package auth

import (
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8

	// hashCost trades login latency for brute-force resistance.
	hashCost = 12
)

// ErrWeakPassword is returned when a plaintext password is too short to hash.
var ErrWeakPassword = errors.New("password must be at least 8 characters long")

// HashPassword hashes a plaintext password with bcrypt. The salt is
// generated per call, so hashing the same input twice yields different
// outputs.
func HashPassword(plaintext string) (string, error) {
	if len(plaintext) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plaintext matches the stored hash. It
// never returns an error: malformed hashes are logged and treated as a
// mismatch.
func VerifyPassword(plaintext, hashed string) bool {
	if plaintext == "" || hashed == "" {
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			slog.Warn("password verification failed on malformed hash", "error", err)
		}
		return false
	}
	return true
}

var dummyHash = sync.OnceValue(func() string {
	hashed, err := bcrypt.GenerateFromPassword([]byte("login-timing-equalizer"), hashCost)
	if err != nil {
		return ""
	}
	return string(hashed)
})

// VerifyDummyPassword burns the same CPU cost as a real verification and
// always returns false. Login uses it for unknown emails so the response
// timing does not reveal whether an account exists.
func VerifyDummyPassword(plaintext string) bool {
	VerifyPassword(plaintext, dummyHash())
	return false
}
