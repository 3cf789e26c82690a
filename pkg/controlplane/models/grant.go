package models

import "time"

// PermissionGrant is an explicit ACL entry giving a non-owner rights on a
// single namespace node. Grants confer rights, never ownership, and are not
// inherited by descendants.
type PermissionGrant struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	FileID    string    `gorm:"not null;size:36;uniqueIndex:idx_grants_file_grantee,priority:1" json:"file_id"`
	GranteeID string    `gorm:"not null;size:36;uniqueIndex:idx_grants_file_grantee,priority:2;index" json:"user_id"`
	CanRead   bool      `gorm:"default:false" json:"can_read"`
	CanWrite  bool      `gorm:"default:false" json:"can_write"`
	CanDelete bool      `gorm:"default:false" json:"can_delete"`
	GrantedBy string    `gorm:"size:36" json:"granted_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for PermissionGrant.
func (PermissionGrant) TableName() string {
	return "permission_grants"
}
