package config

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used by HashPassword when cost is zero.
const DefaultBcryptCost = 12

// AdminCredentials checks the admin login of the HTTP API.
type AdminCredentials struct {
	Username     string
	PasswordHash string
	Pepper       string // optional global secret appended before hashing
}

// Admin returns the admin login configured in the auth section.
func (a AuthConfig) Admin() AdminCredentials {
	return AdminCredentials{
		Username:     a.AdminUsername,
		PasswordHash: a.AdminPasswordHash,
		Pepper:       a.PasswordPepper,
	}
}

// Enabled reports whether an admin login is configured at all.
func (c AdminCredentials) Enabled() bool {
	return c.Username != "" && c.PasswordHash != ""
}

// Verify reports whether username and password match the configured login.
func (c AdminCredentials) Verify(username, password string) bool {
	if !c.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password+c.Pepper))
	return userOK && err == nil
}

// HashPassword produces the value for ADMIN_PASSWORD_HASH.
func HashPassword(password, pepper string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < 10 || cost > 14 {
		return "", fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", cost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password+pepper), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
