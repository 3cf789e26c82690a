package models

import "time"

// FileKind distinguishes namespace nodes.
type FileKind string

const (
	// KindFile is a regular file backed by a physical blob.
	KindFile FileKind = "file"
	// KindFolder is a container node. Folders never carry blob fields.
	KindFolder FileKind = "folder"
)

// IsValid checks if the kind is a known FileKind.
func (k FileKind) IsValid() bool {
	return k == KindFile || k == KindFolder
}

// FileEntry is one node of a user's namespace tree.
//
// LogicalPath is unique per owner and ParentPath is always its directory
// component. The blob fields (MimeType, SizeBytes, PhysicalLocation,
// ContentHash, RefCount) are set for files only. Rows that share a
// PhysicalLocation share the same ContentHash and carry the same RefCount,
// which equals the number of rows pointing at that location.
type FileEntry struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID          string    `gorm:"not null;size:36;uniqueIndex:idx_files_owner_path,priority:1;index:idx_files_owner_parent,priority:1" json:"owner_id"`
	Name             string    `gorm:"not null;size:255" json:"name"`
	LogicalPath      string    `gorm:"not null;size:2048;uniqueIndex:idx_files_owner_path,priority:2" json:"path"`
	ParentPath       string    `gorm:"not null;size:2048;index:idx_files_owner_parent,priority:2" json:"parent_path"`
	Kind             FileKind  `gorm:"not null;size:16" json:"kind"`
	MimeType         *string   `gorm:"size:255" json:"mime_type,omitempty"`
	SizeBytes        *int64    `json:"size,omitempty"`
	PhysicalLocation *string   `gorm:"size:4096;index" json:"-"`
	ContentHash      *string   `gorm:"size:64;index" json:"content_hash,omitempty"`
	RefCount         *int      `json:"ref_count,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for FileEntry.
func (FileEntry) TableName() string {
	return "files"
}

// IsFolder reports whether the entry is a folder.
func (f *FileEntry) IsFolder() bool {
	return f.Kind == KindFolder
}

// IsFile reports whether the entry is a regular file.
func (f *FileEntry) IsFile() bool {
	return f.Kind == KindFile
}

// Size returns the file size, or 0 for folders and unsized rows.
func (f *FileEntry) Size() int64 {
	if f.SizeBytes == nil {
		return 0
	}
	return *f.SizeBytes
}

// Location returns the physical location, or "" when unset.
func (f *FileEntry) Location() string {
	if f.PhysicalLocation == nil {
		return ""
	}
	return *f.PhysicalLocation
}

// Hash returns the content digest, or "" while it has not been computed.
func (f *FileEntry) Hash() string {
	if f.ContentHash == nil {
		return ""
	}
	return *f.ContentHash
}

// References returns the row's reference count, treating nil as 1 for files.
func (f *FileEntry) References() int {
	if f.RefCount == nil {
		if f.IsFile() {
			return 1
		}
		return 0
	}
	return *f.RefCount
}

// Mime returns the MIME type, or "application/octet-stream" when unset.
func (f *FileEntry) Mime() string {
	if f.MimeType == nil || *f.MimeType == "" {
		return "application/octet-stream"
	}
	return *f.MimeType
}

// FilePatch describes a partial update of a FileEntry.
//
// Only non-nil fields are written. A patch is applied as a single UPDATE so
// callers express intent as a value instead of mutating a loaded row.
type FilePatch struct {
	Name             *string
	LogicalPath      *string
	ParentPath       *string
	PhysicalLocation *string
	ContentHash      *string
	RefCount         *int
}

// Columns returns the column/value map for the patch.
func (p FilePatch) Columns() map[string]any {
	cols := make(map[string]any, 6)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.LogicalPath != nil {
		cols["logical_path"] = *p.LogicalPath
	}
	if p.ParentPath != nil {
		cols["parent_path"] = *p.ParentPath
	}
	if p.PhysicalLocation != nil {
		cols["physical_location"] = *p.PhysicalLocation
	}
	if p.ContentHash != nil {
		cols["content_hash"] = *p.ContentHash
	}
	if p.RefCount != nil {
		cols["ref_count"] = *p.RefCount
	}
	return cols
}

// IsEmpty reports whether the patch changes nothing.
func (p FilePatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}
