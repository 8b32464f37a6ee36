package config

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Auth defaults and bounds.
const (
	DefaultJWTExpirationHours = 24
	MaxJWTExpirationHours     = 24 * 30
	MinJWTSecretBytes         = 32

	DefaultBcryptCost = 12
	MinBcryptCost     = 10
	MaxBcryptCost     = 14
)

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash without
// truncation. Peppered passwords are never too long.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// JWTConfig holds the bearer token signing settings.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig reads JWT_SECRET (required, at least 32 bytes) and
// JWT_EXPIRATION_HOURS (default 24).
func NewJWTConfig() (*JWTConfig, error) {
	hours, err := envInt("JWT_EXPIRATION_HOURS", DefaultJWTExpirationHours)
	if err != nil {
		return nil, err
	}
	cfg := &JWTConfig{Secret: os.Getenv("JWT_SECRET"), ExpirationHours: hours}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the secret length and expiry range.
func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("config error: JWT_SECRET is required")
	}
	if len(c.Secret) < MinJWTSecretBytes {
		return fmt.Errorf("config error: JWT_SECRET must be at least %d bytes", MinJWTSecretBytes)
	}
	if c.ExpirationHours < 1 || c.ExpirationHours > MaxJWTExpirationHours {
		return fmt.Errorf("config error: JWT_EXPIRATION_HOURS must be between 1 and %d, got %d",
			MaxJWTExpirationHours, c.ExpirationHours)
	}
	return nil
}

// Expiry returns the token lifetime.
func (c *JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// PasswordConfig holds the password hashing settings. When Pepper is set
// the bcrypt input is an HMAC-SHA256 of the password keyed by the pepper.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string
}

// NewPasswordConfig reads BCRYPT_COST (default 12) and PASSWORD_PEPPER
// (optional).
func NewPasswordConfig() (*PasswordConfig, error) {
	cost, err := envInt("BCRYPT_COST", DefaultBcryptCost)
	if err != nil {
		return nil, err
	}
	cfg := &PasswordConfig{BcryptCost: cost, Pepper: os.Getenv("PASSWORD_PEPPER")}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the bcrypt cost range.
func (c *PasswordConfig) Validate() error {
	if c.BcryptCost < MinBcryptCost || c.BcryptCost > MaxBcryptCost {
		return fmt.Errorf("config error: BCRYPT_COST must be between %d and %d, got %d",
			MinBcryptCost, MaxBcryptCost, c.BcryptCost)
	}
	return nil
}

func (c *PasswordConfig) secret(pw string) []byte {
	if c.Pepper == "" {
		return []byte(pw)
	}
	mac := hmac.New(sha256.New, []byte(c.Pepper))
	mac.Write([]byte(pw))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// HashPassword returns the bcrypt hash of pw.
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	secret := c.secret(pw)
	if len(secret) > 72 {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword(secret, c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether pw matches storedHash.
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.secret(pw)) == nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config error: invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
