// Package auth holds the credential primitives: password hashing,
// one-time confirmation codes, and signed session tokens.
package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the salt rounds used when the accounts were first
// created; changing it only affects newly hashed passwords.
const bcryptCost = 10

// HashPassword returns a salted bcrypt hash of the plaintext. The salt is
// random, so two calls with the same input produce different hashes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
