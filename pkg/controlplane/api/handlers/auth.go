package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/controlplane/api/auth"
	"github.com/marmos91/dittodrive/pkg/controlplane/api/middleware"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
)

// AuthHandler serves login, token refresh and the caller's own profile.
type AuthHandler struct {
	users  store.UserStore
	tokens *auth.JWTService
}

func NewAuthHandler(users store.UserStore, tokens *auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/v1/auth/register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=64,excludesall=/\\"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name,omitempty" validate:"max=128"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// requestError turns the first failed field of a validator error into a
// client message.
func requestError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s is not a valid email address", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned by login and refresh: a fresh token pair and
// the profile it was issued for.
type LoginResponse struct {
	auth.TokenPair
	User UserResponse `json:"user"`
}

// UserResponse is a user without credentials.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	Enabled     bool       `json:"enabled"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func userToResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
		Enabled:     u.Enabled,
		LastLogin:   u.LastLogin,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	ctx := r.Context()
	user, err := h.users.ValidateCredentials(ctx, req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrInvalidCredentials):
		logger.InfoCtx(ctx, "Login failed", logger.Username(req.Username))
		Unauthorized(w, "Invalid username or password")
		return
	case errors.Is(err, models.ErrUserDisabled):
		Forbidden(w, "User account is disabled")
		return
	default:
		logger.ErrorCtx(ctx, "Credential check failed", logger.Err(err))
		InternalServerError(w, "Authentication failed")
		return
	}

	if !h.respondWithTokens(w, r, user) {
		return
	}
	if err := h.users.UpdateLastLogin(ctx, user.Username, time.Now()); err != nil {
		logger.WarnCtx(ctx, "Failed to record last login", logger.Username(user.Username), logger.Err(err))
	}
}

// Register handles POST /api/v1/auth/register. The new account is an
// enabled plain user and is logged in right away.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		BadRequest(w, requestError(err))
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	ctx := r.Context()
	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Enabled:      true,
		Role:         string(models.RoleUser),
		DisplayName:  req.DisplayName,
		Email:        req.Email,
	}
	switch _, err := h.users.CreateUser(ctx, user); {
	case err == nil:
	case errors.Is(err, models.ErrDuplicateUser):
		Conflict(w, "Username already taken")
		return
	default:
		logger.ErrorCtx(ctx, "Registration failed", logger.Username(req.Username), logger.Err(err))
		InternalServerError(w, "Failed to create user")
		return
	}

	logger.InfoCtx(ctx, "User registered", logger.Username(user.Username), logger.OwnerID(user.ID))
	pair, err := h.tokens.GenerateTokenPair(user)
	if err != nil {
		logger.ErrorCtx(ctx, "Token generation failed", logger.Err(err))
		InternalServerError(w, "Failed to generate token")
		return
	}
	WriteJSONCreated(w, LoginResponse{TokenPair: *pair, User: userToResponse(user)})
}

// Refresh handles POST /api/v1/auth/refresh. The account is re-read so a
// disabled or deleted user cannot renew tokens.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		BadRequest(w, "Refresh token is required")
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if errors.Is(err, auth.ErrExpiredToken) {
		Unauthorized(w, "Refresh token has expired")
		return
	}
	if err != nil {
		Unauthorized(w, "Invalid refresh token")
		return
	}

	user, ok := h.lookup(w, r, claims.UserID)
	if !ok {
		return
	}
	if !user.Enabled {
		Forbidden(w, "User account is disabled")
		return
	}
	h.respondWithTokens(w, r, user)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}
	if user, ok := h.lookup(w, r, claims.UserID); ok {
		WriteJSONOK(w, userToResponse(user))
	}
}

// lookup loads the token subject, answering 401 when it no longer exists.
func (h *AuthHandler) lookup(w http.ResponseWriter, r *http.Request, id string) (*models.User, bool) {
	user, err := h.users.GetUserByID(r.Context(), id)
	if errors.Is(err, models.ErrUserNotFound) {
		Unauthorized(w, "User not found")
		return nil, false
	}
	if err != nil {
		logger.ErrorCtx(r.Context(), "User lookup failed", logger.UserID(id), logger.Err(err))
		InternalServerError(w, "Failed to fetch user")
		return nil, false
	}
	return user, true
}

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, user *models.User) bool {
	pair, err := h.tokens.GenerateTokenPair(user)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Token generation failed", logger.Err(err))
		InternalServerError(w, "Failed to generate token")
		return false
	}
	WriteJSONOK(w, LoginResponse{TokenPair: *pair, User: userToResponse(user)})
	return true
}
