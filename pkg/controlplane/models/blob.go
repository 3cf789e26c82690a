package models

import "time"

// Blob indexes one deduplicated physical blob per (owner, content digest).
//
// The unique index on (owner_id, content_hash) is the compare-and-set anchor
// for upload registration: whichever upload inserts the row first owns the
// canonical location, every other upload of the same bytes attaches to it.
// RefCount mirrors the ref_count of the FileEntry rows sharing Location.
type Blob struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string    `gorm:"not null;size:36;uniqueIndex:idx_blobs_owner_hash,priority:1" json:"owner_id"`
	ContentHash string    `gorm:"not null;size:64;uniqueIndex:idx_blobs_owner_hash,priority:2" json:"content_hash"`
	Location    string    `gorm:"not null;size:4096;uniqueIndex" json:"-"`
	RefCount    int       `gorm:"not null;default:1" json:"ref_count"`
	SizeBytes   int64     `json:"size"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Blob.
func (Blob) TableName() string {
	return "blobs"
}
