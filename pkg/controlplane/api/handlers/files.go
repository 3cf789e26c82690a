package handlers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	"github.com/marmos91/dittodrive/pkg/drive/content"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
)

// FileHandler serves the namespace, upload and download endpoints.
type FileHandler struct {
	drive *drive.Service
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(d *drive.Service) *FileHandler {
	return &FileHandler{drive: d}
}

// FolderRequest is the body of POST /files/folder.
type FolderRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// InstantUploadRequest is the body of POST /files/instant-upload.
type InstantUploadRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// RenameRequest is the body of PUT /files/{id}/rename.
type RenameRequest struct {
	Name string `json:"name"`
}

// DestinationRequest is the body of the move and copy endpoints.
type DestinationRequest struct {
	Destination string `json:"destination"`
}

// IDsRequest is the body of the batch endpoints.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// ListResponse is returned by GET /files.
type ListResponse struct {
	Path    string              `json:"path"`
	Entries []*models.FileEntry `json:"entries"`
}

// List handles GET /files?path=/x. Admins may pass owner to list another
// user's namespace.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	p := r.URL.Query().Get("path")
	if p == "" {
		p = pathutil.Root
	}
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = actor.UserID
	}

	entries, err := h.drive.Namespace().ListOwner(r.Context(), actor, owner, p)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.FileEntry{}
	}
	WriteJSONOK(w, ListResponse{Path: pathutil.MustNormalize(p), Entries: entries})
}

// Get handles GET /files/{id}.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	node, err := h.drive.Namespace().Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONOK(w, node)
}

// Upload handles POST /files/upload. The body is multipart: an optional
// "path" field naming the target folder followed by the "file" part, which
// is streamed to storage without buffering. path may also be given as a
// query parameter.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		BadRequest(w, "Expected a multipart/form-data body")
		return
	}

	parent := r.URL.Query().Get("path")
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			BadRequest(w, "Missing file part")
			return
		}
		if err != nil {
			BadRequest(w, "Malformed multipart body")
			return
		}

		switch part.FormName() {
		case "path":
			b, err := io.ReadAll(io.LimitReader(part, 4096))
			_ = part.Close()
			if err != nil {
				BadRequest(w, "Malformed path field")
				return
			}
			parent = string(b)
		case "file":
			h.storePart(w, r, actor, parent, part)
			_ = part.Close()
			return
		default:
			_ = part.Close()
		}
	}
}

func (h *FileHandler) storePart(w http.ResponseWriter, r *http.Request, actor access.Actor, parent string, part *multipart.Part) {
	if parent == "" {
		parent = pathutil.Root
	}
	name := part.FileName()
	if name == "" {
		BadRequest(w, "File part has no filename")
		return
	}

	ct := part.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	} else {
		ct = ""
	}

	row, err := h.drive.Upload(r.Context(), actor, parent, name, ct, part)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONCreated(w, row)
}

// InstantUpload handles POST /files/instant-upload.
func (h *FileHandler) InstantUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req InstantUploadRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := content.ValidateDigest(req.Hash); err != nil {
		WriteDriveError(w, r, err)
		return
	}
	if req.Path == "" {
		req.Path = pathutil.Root
	}

	row, err := h.drive.InstantUpload(r.Context(), actor, req.Path, req.Name, req.Hash)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONCreated(w, row)
}

// CreateFolder handles POST /files/folder.
func (h *FileHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req FolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		req.Path = pathutil.Root
	}

	folder, err := h.drive.Namespace().CreateFolder(r.Context(), actor, req.Path, req.Name)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONCreated(w, folder)
}

// Download handles GET /files/{id}/download. Folders are streamed as zip
// archives.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, []string{chi.URLParam(r, "id")})
}

// BatchDownload handles POST /files/batch-download.
func (h *FileHandler) BatchDownload(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	h.export(w, r, req.IDs)
}

func (h *FileHandler) export(w http.ResponseWriter, r *http.Request, ids []string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	d, err := h.drive.Export(r.Context(), actor, ids)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	defer func() { _ = d.Body.Close() }()

	w.Header().Set("Content-Type", d.MimeType)
	w.Header().Set("Content-Disposition", d.ContentDisposition())
	if d.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := bufpool.Copy(w, d.Body)
	if err != nil {
		// Headers are gone; the client sees a truncated body.
		logger.WarnCtx(r.Context(), "Download interrupted",
			logger.Filename(d.Name), logger.Bytes(n), logger.Err(err))
	}
}

// Rename handles PUT /files/{id}/rename.
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req RenameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	node, err := h.drive.Namespace().Rename(r.Context(), actor, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONOK(w, node)
}

// Move handles PUT /files/{id}/move.
func (h *FileHandler) Move(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req DestinationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	node, err := h.drive.Namespace().Move(r.Context(), actor, chi.URLParam(r, "id"), req.Destination)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONOK(w, node)
}

// Copy handles POST /files/{id}/copy.
func (h *FileHandler) Copy(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req DestinationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	node, err := h.drive.Namespace().Copy(r.Context(), actor, chi.URLParam(r, "id"), req.Destination)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONCreated(w, node)
}

// Delete handles DELETE /files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.drive.Namespace().Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// Size handles GET /files/{id}/size.
func (h *FileHandler) Size(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	info, err := h.drive.Namespace().Size(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONOK(w, info)
}

// SizeOf handles POST /files/size. Unreadable or missing ids are skipped.
func (h *FileHandler) SizeOf(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req IDsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	info, err := h.drive.Namespace().SizeOf(r.Context(), actor, req.IDs)
	if err != nil {
		WriteDriveError(w, r, err)
		return
	}
	WriteJSONOK(w, info)
}
