package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is an append-only audit record. The acting user's email and name
// are copied at write time and never re-resolved.
type ActivityLog struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"size:36;index;not null" json:"user_id"`
	UserEmail string         `gorm:"size:255;index" json:"user_email"`
	UserName  string         `gorm:"size:255" json:"user_name"`
	Action    string         `gorm:"size:255;not null" json:"action"`
	Details   datatypes.JSON `json:"details"`
	IPAddress string         `gorm:"size:64" json:"ip_address"`
	UserAgent string         `gorm:"size:512" json:"user_agent"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a generated identifier when none was supplied.
func (a *ActivityLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
