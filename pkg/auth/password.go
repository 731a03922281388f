package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// SaltSize matches the HMAC-SHA256 block size, so the salt is used as the
// key without being pre-hashed.
const SaltSize = 64

// HashPassword generates a fresh random salt and returns
// HMAC-SHA256(key=salt, msg=password) together with that salt.
//
// This is a single fast keyed-hash pass, not a slow KDF.
func HashPassword(password string) (hash, salt []byte, err error) {
	salt = make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}
	return ComputeHash(password, salt), salt, nil
}

// ComputeHash returns HMAC-SHA256 of the UTF-8 password keyed by salt.
func ComputeHash(password string, salt []byte) []byte {
	mac := hmac.New(sha256.New, salt)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

// CheckPassword recomputes the hash with the stored salt and compares it in
// constant time. Empty hash or salt never match.
func CheckPassword(password string, hash, salt []byte) bool {
	if len(hash) == 0 || len(salt) == 0 {
		return false
	}
	return hmac.Equal(ComputeHash(password, salt), hash)
}
