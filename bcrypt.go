package webcore

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a cleartext password with bcrypt. The cost comes from
// passwordHashCost so race-enabled test builds can trade strength for speed.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// ComparePasswordAndHash checks a cleartext password against a stored hash.
// A mismatch comes back as ErrMismatchedHashAndPassword so callers can tell
// a wrong password from a broken hash.
func ComparePasswordAndHash(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatchedHashAndPassword
	}

	return err
}

// RandomPasswordHash mints a hash no cleartext will ever match. Used to fill
// the password column for accounts that must not be logged into directly,
// like seeded placeholder records.
func RandomPasswordHash() string {
	hash, err := HashPassword(uuid.NewString())
	if err != nil {
		return RandomPasswordHash()
	}

	return hash
}
