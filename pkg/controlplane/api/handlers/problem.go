// Package handlers provides the HTTP handlers of the DittoDrive API.
package handlers

import (
	"encoding/json"
	"net/http"
)

// ContentTypeProblemJSON is the media type of error bodies (RFC 7807).
const ContentTypeProblemJSON = "application/problem+json"

// Problem is an RFC 7807 error body. Code carries the drive error kind when
// the failure came from a storage operation.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

func writeBody(w http.ResponseWriter, contentType string, status int, body any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteProblem writes a problem body titled after the status text.
func WriteProblem(w http.ResponseWriter, status int, code, detail string) {
	writeBody(w, ContentTypeProblemJSON, status, &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	})
}

func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, "", detail)
}

func Unauthorized(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusUnauthorized, "", detail)
}

func Forbidden(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusForbidden, "", detail)
}

func NotFound(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusNotFound, "", detail)
}

func Conflict(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusConflict, "", detail)
}

func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "", detail)
}

// WriteJSON writes data as an application/json body.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeBody(w, "application/json", status, data)
}

func WriteJSONOK(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusOK, data) }

func WriteJSONCreated(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusCreated, data) }

func WriteNoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }
