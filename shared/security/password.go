package security

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/matthewhartstonge/argon2"
)

var hashConfig = argon2.DefaultConfig()

// HashPassword hashes a plaintext password with argon2id.
func HashPassword(password string) (string, error) {
	encoded, err := hashConfig.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether the plaintext password matches the encoded hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}

// RandomPasswordHash hashes a randomly generated password. It is used for
// accounts created through an external identity provider, so that every
// account carries a password hash a direct login can be checked against
// without ever matching.
func RandomPasswordHash() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return HashPassword(base64.RawURLEncoding.EncodeToString(bytes))
}
