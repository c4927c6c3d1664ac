package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecuritySettingsID is the fixed primary key of the security settings singleton.
const SecuritySettingsID uint = 1

// VisualScopeGlobal is the scope key of the global visual settings record.
const VisualScopeGlobal = "global"

// SecuritySettings holds the system-wide security policy. At most one row exists.
type SecuritySettings struct {
	ID                    uint                        `gorm:"primaryKey;autoIncrement:false" json:"-"`
	TwoFactorAuth         bool                        `gorm:"not null" json:"two_factor_auth"`
	SessionTimeout        int                         `gorm:"not null" json:"session_timeout"`
	IPWhitelist           bool                        `gorm:"not null" json:"ip_whitelist"`
	AllowedIPs            datatypes.JSONSlice[string] `json:"allowed_ips"`
	LocationRestriction   bool                        `gorm:"not null" json:"location_restriction"`
	ActivityLogging       bool                        `gorm:"not null" json:"activity_logging"`
	LoginAttempts         int                         `gorm:"not null" json:"login_attempts"`
	RequireStrongPassword bool                        `gorm:"not null" json:"require_strong_password"`
	PasswordExpiry        int                         `gorm:"not null" json:"password_expiry"`
	UpdatedBy             string                      `gorm:"size:36" json:"updated_by"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
}

// VisualSettings stores branding preferences, either globally or per user.
// ScopeKey is unique and is either VisualScopeGlobal or VisualScopeForUser(id).
type VisualSettings struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	ScopeKey       string            `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID         *string           `gorm:"size:36;index" json:"user_id"`
	IsGlobal       bool              `gorm:"not null;default:false" json:"is_global"`
	PrimaryColor   string            `gorm:"size:32" json:"primary_color"`
	SecondaryColor string            `gorm:"size:32" json:"secondary_color"`
	AccentColor    string            `gorm:"size:32" json:"accent_color"`
	FontFamily     string            `gorm:"size:128" json:"font_family"`
	FontSize       string            `gorm:"size:32" json:"font_size"`
	Theme          string            `gorm:"size:32" json:"theme"`
	LogoURL        string            `gorm:"size:1024" json:"logo_url"`
	SiteName       string            `gorm:"size:255" json:"site_name"`
	Subtitle       string            `gorm:"size:255" json:"subtitle"`
	Settings       datatypes.JSONMap `json:"settings"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// BeforeCreate assigns a generated identifier when none was supplied.
func (v *VisualSettings) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VisualScopeForUser returns the scope key of a user's personal visual settings.
func VisualScopeForUser(userID string) string {
	return "user:" + userID
}
