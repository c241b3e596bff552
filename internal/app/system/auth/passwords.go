package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LegacyHash is the unsalted SHA-256 hex digest used by the provisioning
// tool. Accounts created with it verify until their password is next changed,
// at which point they are re-hashed with bcrypt.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword verifies password against a stored hash, accepting both
// bcrypt hashes and legacy SHA-256 digests.
func CheckPassword(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	legacy := LegacyHash(password)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(legacy)) == 1
}
