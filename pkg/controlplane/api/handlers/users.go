package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive"
)

// UserHandler handles the admin user management endpoints.
type UserHandler struct {
	store store.UserStore
	drive *drive.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s store.UserStore, d *drive.Service) *UserHandler {
	return &UserHandler{store: s, drive: d}
}

// CreateUserRequest is the request body for POST /api/v1/users.
type CreateUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty"`
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Username == "" {
		BadRequest(w, "Username is required")
		return
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		BadRequest(w, err.Error())
		return
	}

	role := models.RoleUser
	if req.Role != "" {
		role = models.UserRole(req.Role)
		if !role.IsValid() {
			BadRequest(w, "Invalid role. Must be 'user' or 'admin'")
			return
		}
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Enabled:      true,
		Role:         string(role),
		DisplayName:  req.DisplayName,
		Email:        req.Email,
	}
	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}

	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "User already exists")
			return
		}
		logger.ErrorCtx(r.Context(), "Failed to create user", logger.Username(req.Username), logger.Err(err))
		InternalServerError(w, "Failed to create user")
		return
	}

	logger.InfoCtx(r.Context(), "User created", logger.Username(user.Username), logger.OwnerID(user.ID))
	WriteJSONCreated(w, userToResponse(user))
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list users")
		return
	}

	response := make([]UserResponse, len(users))
	for i, u := range users {
		response[i] = userToResponse(u)
	}
	WriteJSONOK(w, response)
}

// Delete handles DELETE /api/v1/users/{id}. The user's namespace and bytes
// are removed with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.drive.DeleteUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteNoContent(w)
}
