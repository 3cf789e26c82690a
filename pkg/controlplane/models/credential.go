package models

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the default cost parameter for bcrypt hashing.
const DefaultBcryptCost = 10

// Password validation errors.
var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// bcrypt silently truncates at 72 bytes.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// Password length constraints.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

const (
	// AdminUsername is the username of the bootstrap administrator.
	AdminUsername = "admin"

	// EnvAdminInitialPassword can be used to set the initial admin password.
	// If not set, a random password is generated.
	EnvAdminInitialPassword = "DITTODRIVE_ADMIN_INITIAL_PASSWORD"

	// DefaultAdminDisplayName is the display name for the admin user.
	DefaultAdminDisplayName = "Administrator"
)

// ValidatePassword checks the password length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword creates a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

// HashPasswordWithCost creates a bcrypt hash with a custom cost.
// Tests use bcrypt.MinCost to keep suites fast.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword reports whether password matches the bcrypt hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DefaultAdminUser creates the bootstrap admin user with the given password
// hash. An empty username falls back to AdminUsername.
func DefaultAdminUser(username, email, passwordHash string) *User {
	if username == "" {
		username = AdminUsername
	}
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Enabled:      true,
		Role:         string(RoleAdmin),
		DisplayName:  DefaultAdminDisplayName,
		CreatedAt:    time.Now(),
	}
}

// GetOrGenerateAdminPassword returns the password from the environment or a
// freshly generated one.
func GetOrGenerateAdminPassword() (string, error) {
	if pw := os.Getenv(EnvAdminInitialPassword); pw != "" {
		return pw, nil
	}
	return GenerateRandomPassword()
}

// GenerateRandomPassword returns a 24-character URL-safe base64 string
// (18 bytes of randomness).
func GenerateRandomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
