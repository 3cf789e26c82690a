package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive"
)

// PermissionHandler manages explicit grants on namespace entries.
type PermissionHandler struct {
	drive *drive.Service
}

// NewPermissionHandler creates a new PermissionHandler.
func NewPermissionHandler(d *drive.Service) *PermissionHandler {
	return &PermissionHandler{drive: d}
}

// GrantPermissionRequest is the body of POST /files/{id}/permissions.
type GrantPermissionRequest struct {
	UserID    string `json:"user_id"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CanDelete bool   `json:"can_delete"`
}

// List handles GET /files/{id}/permissions.
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	grants, err := h.drive.ListGrants(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	if grants == nil {
		grants = []*models.PermissionGrant{}
	}
	WriteJSONOK(w, grants)
}

// Grant handles POST /files/{id}/permissions.
func (h *PermissionHandler) Grant(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req GrantPermissionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		BadRequest(w, "user_id is required")
		return
	}

	grant, err := h.drive.Grant(r.Context(), actor, drive.GrantRequest{
		FileID:    chi.URLParam(r, "id"),
		GranteeID: req.UserID,
		Read:      req.CanRead,
		Write:     req.CanWrite,
		Delete:    req.CanDelete,
	})
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONOK(w, grant)
}

// Revoke handles DELETE /files/{id}/permissions/{userID}.
func (h *PermissionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.drive.Revoke(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "userID")); err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteNoContent(w)
}
