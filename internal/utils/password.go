package utils

import "golang.org/x/crypto/bcrypt"

// MinBcryptCost is the lowest work factor accepted for stored passwords.
const MinBcryptCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword hashes a given password using bcrypt.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with its hashed version.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
