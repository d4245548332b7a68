package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext credential with bcrypt at the default cost.
// Used to produce the OPERATOR_PASSWORD_HASH value carried in config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash reports whether the plaintext credential matches the stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
