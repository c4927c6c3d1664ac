package models

import "time"

// Supported profile roles.
const (
	RoleAdmin     = "admin"
	RoleTeacher   = "teacher"
	RoleAuxiliary = "auxiliary"
	RoleParent    = "parent"
	RoleStudent   = "student"
)

// Profile is the account record a bearer token must resolve to.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsKnownRole reports whether role is one of the supported profile roles.
func IsKnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleAuxiliary, RoleParent, RoleStudent:
		return true
	default:
		return false
	}
}
