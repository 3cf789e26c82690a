package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

// MinSecretLength is the shortest accepted HMAC secret.
const MinSecretLength = 32

const (
	defaultIssuer          = "dittodrive"
	defaultAccessLifetime  = 15 * time.Minute
	defaultRefreshLifetime = 7 * 24 * time.Hour

	// clockSkew tolerated when checking exp, nbf, and iat.
	clockSkew = 5 * time.Second
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = fmt.Errorf("JWT secret must be at least %d characters", MinSecretLength)
)

// JWTConfig configures token signing. Zero durations and an empty issuer
// take defaults.
type JWTConfig struct {
	Secret               string
	Issuer               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"` // always "Bearer"
	ExpiresIn    int64     `json:"expires_in"` // access token lifetime, seconds
	ExpiresAt    time.Time `json:"expires_at"`
}

// JWTService signs and verifies HS256 tokens.
type JWTService struct {
	secret    []byte
	issuer    string
	lifetimes map[TokenType]time.Duration
	parser    *jwt.Parser
	now       func() time.Time
}

// NewJWTService creates a JWTService from cfg.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.AccessTokenDuration == 0 {
		cfg.AccessTokenDuration = defaultAccessLifetime
	}
	if cfg.RefreshTokenDuration == 0 {
		cfg.RefreshTokenDuration = defaultRefreshLifetime
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		lifetimes: map[TokenType]time.Duration{
			TokenTypeAccess:  cfg.AccessTokenDuration,
			TokenTypeRefresh: cfg.RefreshTokenDuration,
		},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
		),
		now: time.Now,
	}, nil
}

// GenerateTokenPair issues an access and a refresh token for user.
func (s *JWTService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	now := s.now()

	access, err := s.issue(user, TokenTypeAccess, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.issue(user, TokenTypeRefresh, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	lifetime := s.lifetimes[TokenTypeAccess]
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(lifetime.Seconds()),
		ExpiresAt:    now.Add(lifetime),
	}, nil
}

// issue signs a token of kind for user, valid from issuedAt.
func (s *JWTService) issue(user *models.User, kind TokenType, issuedAt time.Time) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.lifetimes[kind])),
		},
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenType: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", ErrTokenSigningFailed
	}
	return signed, nil
}

// ValidateToken verifies signature, issuer, and expiry of any token type.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken accepts only valid access tokens.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	return s.validateKind(raw, TokenTypeAccess)
}

// ValidateRefreshToken accepts only valid refresh tokens.
func (s *JWTService) ValidateRefreshToken(raw string) (*Claims, error) {
	return s.validateKind(raw, TokenTypeRefresh)
}

func (s *JWTService) validateKind(raw string, want TokenType) (*Claims, error) {
	claims, err := s.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// GetAccessTokenDuration returns the access token lifetime.
func (s *JWTService) GetAccessTokenDuration() time.Duration {
	return s.lifetimes[TokenTypeAccess]
}

// GetRefreshTokenDuration returns the refresh token lifetime.
func (s *JWTService) GetRefreshTokenDuration() time.Duration {
	return s.lifetimes[TokenTypeRefresh]
}
