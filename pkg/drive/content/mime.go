package content

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
)

// DefaultMimeType is used when neither the extension nor the bytes identify
// the content.
const DefaultMimeType = "application/octet-stream"

var mimeByExtension = map[string]string{
	// Images
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"webp": "image/webp",

	// Documents
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	// Text
	"txt":  "text/plain",
	"csv":  "text/csv",
	"json": "application/json",
	"xml":  "application/xml",
	"html": "text/html",
	"htm":  "text/html",
	"css":  "text/css",
	"js":   "text/javascript",

	// Video
	"mp4": "video/mp4",
	"avi": "video/x-msvideo",
	"mov": "video/quicktime",
	"wmv": "video/x-ms-wmv",

	// Audio
	"mp3": "audio/mpeg",
	"wav": "audio/wav",
	"ogg": "audio/ogg",

	// Archives
	"zip": "application/zip",
	"rar": "application/x-rar-compressed",
	"7z":  "application/x-7z-compressed",
	"tar": "application/x-tar",
	"gz":  "application/gzip",
}

// MimeFromName returns the MIME type registered for name's extension, or ""
// when the extension is unknown.
func MimeFromName(name string) string {
	_, ext := pathutil.SplitName(name)
	return mimeByExtension[strings.ToLower(ext)]
}

// DetectMime picks a MIME type for a stored file: the extension table first,
// then content sniffing of the bytes at location, then DefaultMimeType.
func DetectMime(name, location string) string {
	if m := MimeFromName(name); m != "" {
		return m
	}
	if location != "" {
		if mt, err := mimetype.DetectFile(location); err == nil && mt.String() != DefaultMimeType {
			return mt.String()
		}
	}
	return DefaultMimeType
}
