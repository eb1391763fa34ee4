package models

import (
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole normalises a raw role value. Unknown values yield an empty role.
func ParseRole(raw string) Role {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return role
	default:
		return ""
	}
}

// CanTeach reports whether accounts with this role may be attached to sessions and validate reports.
func (r Role) CanTeach() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// IsAdmin reports whether the role carries administrator privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// TeachingRoles lists the roles satisfying CanTeach, for use in queries.
func TeachingRoles() []Role {
	return []Role{RoleAdmin, RoleTeacher}
}

// User is a login account.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email             string    `gorm:"size:255" json:"email"`
	FirstName         string    `gorm:"size:150" json:"first_name"`
	LastName          string    `gorm:"size:150" json:"last_name"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	Role              Role      `gorm:"size:16;not null;default:student;index" json:"role"`
	ProfilePictureURL *string   `gorm:"size:500" json:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
