package handlers

import (
	"net/http"

	"github.com/marmos91/dittodrive/pkg/drive"
)

// StorageHandler reports usage.
type StorageHandler struct {
	drive *drive.Service
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(d *drive.Service) *StorageHandler {
	return &StorageHandler{drive: d}
}

// Info handles GET /storage/info.
func (h *StorageHandler) Info(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	info, err := h.drive.StorageInfo(r.Context(), actor)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONOK(w, info)
}
