package models

import "time"

// User is a staff member (coordinator, photographer, editor, admin).
// Clients are managed by an external module and referenced by id only.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Email     string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Status    ResourceStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Roles []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

// Role is a named bundle of permission codes. Reference data; mutated only
// administratively, consumed read-only here.
type Role struct {
	ID     uint           `gorm:"primaryKey" json:"id"`
	Name   string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Status ResourceStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`

	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

// Permission codes follow module.action[.scope], e.g. "session.edit.all"
// or "session.edit.own".
type Permission struct {
	ID     uint           `gorm:"primaryKey" json:"id"`
	Code   string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Status ResourceStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
}

const (
	// AdminRoleName grants every permission unconditionally.
	AdminRoleName = "Admin"

	EditorRoleName       = "Editor"
	PhotographerRoleName = "Photographer"
)
