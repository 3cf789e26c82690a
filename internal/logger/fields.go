package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Request
	// ========================================================================
	KeyRequestID = "request_id" // chi request ID
	KeyClientIP  = "client_ip"  // Client IP address
	KeyMethod    = "method"     // HTTP method
	KeyRoute     = "route"      // Matched route pattern
	KeyStatus    = "status"     // HTTP status code
	KeyOperation = "operation"  // Drive operation: upload, move, copy, ...

	// ========================================================================
	// Identity
	// ========================================================================
	KeyUserID   = "user_id"  // Acting user ID
	KeyOwnerID  = "owner_id" // Owner of the affected namespace
	KeyUsername = "username" // Username
	KeyRole     = "role"     // user or admin

	// ========================================================================
	// Namespace
	// ========================================================================
	KeyFileID   = "file_id"  // FileEntry ID
	KeyPath     = "path"     // Logical path
	KeyFilename = "filename" // Basename
	KeyOldPath  = "old_path" // Source path for rename/move/copy
	KeyNewPath  = "new_path" // Destination path for rename/move/copy
	KeyKind     = "kind"     // file or folder
	KeyEntries  = "entries"  // Number of entries touched

	// ========================================================================
	// Content
	// ========================================================================
	KeyLocation = "location" // Physical location on disk
	KeyDigest   = "digest"   // SHA-256 content digest (hex)
	KeySize     = "size"     // Size in bytes
	KeyBytes    = "bytes"    // Bytes transferred
	KeyRefCount = "ref_count"
	KeyReused   = "reused" // Upload resolved to an existing blob

	// ========================================================================
	// Workers
	// ========================================================================
	KeyWorker  = "worker"  // Worker index
	KeyPending = "pending" // Queue depth

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Drive error code name
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// RequestID returns a slog.Attr for the request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Operation returns a slog.Attr for the drive operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// UserID returns a slog.Attr for the acting user
func UserID(id string) slog.Attr {
	return slog.String(KeyUserID, id)
}

// OwnerID returns a slog.Attr for the namespace owner
func OwnerID(id string) slog.Attr {
	return slog.String(KeyOwnerID, id)
}

// Username returns a slog.Attr for username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// FileID returns a slog.Attr for a FileEntry ID
func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// Path returns a slog.Attr for a logical path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Filename returns a slog.Attr for a basename
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// OldPath returns a slog.Attr for the source path of a relocation
func OldPath(p string) slog.Attr {
	return slog.String(KeyOldPath, p)
}

// NewPath returns a slog.Attr for the destination path of a relocation
func NewPath(p string) slog.Attr {
	return slog.String(KeyNewPath, p)
}

// Location returns a slog.Attr for a physical location
func Location(loc string) slog.Attr {
	return slog.String(KeyLocation, loc)
}

// Digest returns a slog.Attr for a content digest
func Digest(d string) slog.Attr {
	return slog.String(KeyDigest, d)
}

// Size returns a slog.Attr for a size in bytes
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// Bytes returns a slog.Attr for bytes transferred
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Entries returns a slog.Attr for a number of entries
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// RefCount returns a slog.Attr for a blob reference count
func RefCount(n int) slog.Attr {
	return slog.Int(KeyRefCount, n)
}

// Worker returns a slog.Attr for a worker index
func Worker(i int) slog.Attr {
	return slog.Int(KeyWorker, i)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a drive error code name
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}
