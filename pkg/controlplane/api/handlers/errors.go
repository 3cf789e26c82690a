package handlers

import (
	"errors"
	"net/http"

	"github.com/marmos91/dittodrive/internal/logger"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

// statusFor maps a drive error code to its HTTP status.
func statusFor(code drverrors.ErrorCode) int {
	switch code {
	case drverrors.ErrPathTraversal, drverrors.ErrInvalidArgument:
		return http.StatusBadRequest
	case drverrors.ErrNotFound:
		return http.StatusNotFound
	case drverrors.ErrPermissionDenied:
		return http.StatusForbidden
	case drverrors.ErrAlreadyExists:
		return http.StatusConflict
	case drverrors.ErrTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// WriteDriveError writes the problem response for an error returned by a
// drive operation. Internal failures are logged and their details withheld.
func WriteDriveError(w http.ResponseWriter, r *http.Request, err error) {
	code := drverrors.CodeOf(err)
	status := statusFor(code)
	var name string
	if code != 0 {
		name = code.String()
	}

	if status == http.StatusInternalServerError {
		logger.ErrorCtx(r.Context(), "Request failed",
			logger.ErrorCode(code.String()), logger.Err(err))
		detail := "Storage operation failed"
		if code == drverrors.ErrInconsistent {
			detail = "Storage is inconsistent, contact an administrator"
		}
		WriteProblem(w, status, name, detail)
		return
	}

	detail := err.Error()
	var de *drverrors.DriveError
	if errors.As(err, &de) {
		detail = de.Message
		if de.Path != "" {
			detail += ": " + de.Path
		}
	}
	WriteProblem(w, status, name, detail)
}
