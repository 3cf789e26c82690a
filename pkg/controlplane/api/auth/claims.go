// Package auth issues and validates the JWT bearer tokens of the DittoDrive API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive/access"
)

// TokenType separates short-lived access tokens from refresh tokens. A
// refresh token is never accepted where an access token is expected.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the token payload. UserID doubles as the owner key of the
// user's namespace.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"uid"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

func (c *Claims) IsAccessToken() bool  { return c.TokenType == TokenTypeAccess }
func (c *Claims) IsRefreshToken() bool { return c.TokenType == TokenTypeRefresh }
func (c *Claims) IsAdmin() bool        { return models.UserRole(c.Role) == models.RoleAdmin }

// Actor is the identity the drive service checks permissions against.
func (c *Claims) Actor() access.Actor {
	return access.Actor{UserID: c.UserID, Role: models.UserRole(c.Role)}
}
