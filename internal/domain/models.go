// Package domain defines the persistence models of the users registry. These
// types are mapped with GORM.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user may hold.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is a registered account.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Email: unique, stored lower-cased.
//   - Name: display name, normalized by the service layer.
//   - Role: "member" or "admin" (enforced by DB constraint).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Email     string         `json:"email"      gorm:"type:varchar(254);not null;uniqueIndex:ux_users_email"`
	Name      string         `json:"name"       gorm:"type:varchar(100);not null"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;default:'member';check:role IN ('member','admin')"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_users_created"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsAdmin reports whether u holds the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
