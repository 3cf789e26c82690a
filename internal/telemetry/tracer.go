package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for drive operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// Identity attributes
	// ========================================================================
	AttrUserID   = "user.id"
	AttrUsername = "user.name"
	AttrRole     = "user.role"
	AttrOwnerID  = "owner.id"

	// ========================================================================
	// Namespace attributes
	// ========================================================================
	AttrOperation = "fs.operation" // create_folder, rename, move, copy, delete
	AttrFileID    = "fs.file_id"
	AttrPath      = "fs.path"
	AttrNewPath   = "fs.new_path"
	AttrFilename  = "fs.filename"
	AttrKind      = "fs.kind" // file or folder
	AttrEntries   = "fs.entries"

	// ========================================================================
	// Content attributes
	// ========================================================================
	AttrDigest   = "content.digest"
	AttrSize     = "content.size"
	AttrLocation = "content.location"
	AttrReused   = "content.reused"
	AttrRefCount = "content.ref_count"

	// ========================================================================
	// Archive attributes
	// ========================================================================
	AttrArchiveEntries    = "archive.entries"
	AttrArchiveBytes      = "archive.bytes"
	AttrArchiveCompressed = "archive.compressed"

	// ========================================================================
	// Worker attributes
	// ========================================================================
	AttrQueuePending = "queue.pending"
	AttrWorker       = "queue.worker"
)

// Span names.
// Format: <component>.<operation>
const (
	SpanUpload         = "drive.upload"
	SpanInstantUpload  = "drive.instant_upload"
	SpanDownload       = "drive.download"
	SpanBatchDownload  = "drive.batch_download"
	SpanContentHash    = "content.hash"
	SpanContentReg     = "content.register"
	SpanContentRelease = "content.release"
	SpanBatchCollect   = "batch.collect"
	SpanArchiveBuild   = "archive.build"

	SpanNamespaceCreateFolder = "namespace.create_folder"
	SpanNamespaceRename       = "namespace.rename"
	SpanNamespaceMove         = "namespace.move"
	SpanNamespaceCopy         = "namespace.copy"
	SpanNamespaceDelete       = "namespace.delete"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for client address (IP:port)
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// UserID returns an attribute for the acting user
func UserID(id string) attribute.KeyValue {
	return attribute.String(AttrUserID, id)
}

// Username returns an attribute for username
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// Role returns an attribute for the acting user's role
func Role(role string) attribute.KeyValue {
	return attribute.String(AttrRole, role)
}

// OwnerID returns an attribute for the namespace owner
func OwnerID(id string) attribute.KeyValue {
	return attribute.String(AttrOwnerID, id)
}

// Operation returns an attribute for the namespace operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// FileID returns an attribute for a file entry ID
func FileID(id string) attribute.KeyValue {
	return attribute.String(AttrFileID, id)
}

// Path returns an attribute for a logical path
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// NewPath returns an attribute for the destination of a relocation
func NewPath(p string) attribute.KeyValue {
	return attribute.String(AttrNewPath, p)
}

// Filename returns an attribute for a basename
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// Kind returns an attribute for the entry kind (file or folder)
func Kind(kind string) attribute.KeyValue {
	return attribute.String(AttrKind, kind)
}

// Entries returns an attribute for the number of entries touched
func Entries(n int) attribute.KeyValue {
	return attribute.Int(AttrEntries, n)
}

// Digest returns an attribute for a content digest
func Digest(d string) attribute.KeyValue {
	return attribute.String(AttrDigest, d)
}

// Size returns an attribute for a size in bytes
func Size(n int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, n)
}

// Location returns an attribute for a physical location
func Location(loc string) attribute.KeyValue {
	return attribute.String(AttrLocation, loc)
}

// Reused returns an attribute marking that an upload resolved to an existing blob
func Reused(reused bool) attribute.KeyValue {
	return attribute.Bool(AttrReused, reused)
}

// RefCount returns an attribute for a blob reference count
func RefCount(n int64) attribute.KeyValue {
	return attribute.Int64(AttrRefCount, n)
}

// ArchiveEntries returns an attribute for the number of archive entries
func ArchiveEntries(n int) attribute.KeyValue {
	return attribute.Int(AttrArchiveEntries, n)
}

// ArchiveBytes returns an attribute for the uncompressed archive payload size
func ArchiveBytes(n int64) attribute.KeyValue {
	return attribute.Int64(AttrArchiveBytes, n)
}

// ArchiveCompressed returns an attribute for whether entries are deflated
func ArchiveCompressed(compressed bool) attribute.KeyValue {
	return attribute.Bool(AttrArchiveCompressed, compressed)
}

// QueuePending returns an attribute for the hash queue depth
func QueuePending(n int) attribute.KeyValue {
	return attribute.Int(AttrQueuePending, n)
}

// Worker returns an attribute for a worker index
func Worker(i int) attribute.KeyValue {
	return attribute.Int(AttrWorker, i)
}

// StartDriveSpan starts a span for a user-facing drive operation.
// The acting user is always recorded.
func StartDriveSpan(ctx context.Context, name, userID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		UserID(userID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartNamespaceSpan starts a span for a namespace mutation.
func StartNamespaceSpan(ctx context.Context, operation, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Operation(operation),
		Path(path),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "namespace."+operation, trace.WithAttributes(allAttrs...))
}

// StartContentSpan starts a span for a content store operation.
func StartContentSpan(ctx context.Context, operation string, location string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Location(location),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "content."+operation, trace.WithAttributes(allAttrs...))
}
