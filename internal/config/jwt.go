package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultJWTIssuer is the iss claim of admin tokens.
const DefaultJWTIssuer = "cv-intake"

// JWTConfig holds configuration for admin token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

// NewJWTConfig creates a JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	expirationHours := 24
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		expirationHours = n
	}
	return newJWTConfig(os.Getenv("JWT_SECRET"), expirationHours)
}

// JWT builds the token configuration from the auth section.
func (a AuthConfig) JWT() (*JWTConfig, error) {
	hours := a.JWTExpirationHours
	if hours == 0 {
		hours = 24
	}
	return newJWTConfig(a.JWTSecret, hours)
}

func newJWTConfig(secret string, hours int) (*JWTConfig, error) {
	cfg := &JWTConfig{Secret: secret, ExpirationHours: hours, Issuer: DefaultJWTIssuer}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
