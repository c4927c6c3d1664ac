package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// Visual settings sources.
const (
	VisualSourceGlobal   = "global"
	VisualSourcePersonal = "personal"
	VisualSourceDefault  = "default"
)

// SecuritySettingsRequest is the save-security-settings body.
type SecuritySettingsRequest struct {
	TwoFactorAuth         bool     `json:"twoFactorAuth"`
	SessionTimeout        int      `json:"sessionTimeout" validate:"min=1,max=1440"`
	IPWhitelist           bool     `json:"ipWhitelist"`
	AllowedIPs            []string `json:"allowedIps" validate:"omitempty,dive,ip|cidr"`
	LocationRestriction   bool     `json:"locationRestriction"`
	ActivityLogging       bool     `json:"activityLogging"`
	LoginAttempts         int      `json:"loginAttempts" validate:"min=1,max=100"`
	RequireStrongPassword bool     `json:"requireStrongPassword"`
	PasswordExpiry        int      `json:"passwordExpiry" validate:"min=0,max=3650"`

	// Raw is the body as submitted; it is audited verbatim.
	Raw json.RawMessage `json:"-"`
}

// SecuritySettingsResponse serializes the security policy.
type SecuritySettingsResponse struct {
	TwoFactorAuth         bool       `json:"twoFactorAuth"`
	SessionTimeout        int        `json:"sessionTimeout"`
	IPWhitelist           bool       `json:"ipWhitelist"`
	AllowedIPs            []string   `json:"allowedIps"`
	LocationRestriction   bool       `json:"locationRestriction"`
	ActivityLogging       bool       `json:"activityLogging"`
	LoginAttempts         int        `json:"loginAttempts"`
	RequireStrongPassword bool       `json:"requireStrongPassword"`
	PasswordExpiry        int        `json:"passwordExpiry"`
	UpdatedBy             string     `json:"updatedBy,omitempty"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
}

// DefaultSecuritySettings is returned when no security settings row exists.
func DefaultSecuritySettings() SecuritySettingsResponse {
	return SecuritySettingsResponse{
		TwoFactorAuth:         false,
		SessionTimeout:        30,
		IPWhitelist:           false,
		AllowedIPs:            []string{},
		LocationRestriction:   false,
		ActivityLogging:       true,
		LoginAttempts:         5,
		RequireStrongPassword: true,
		PasswordExpiry:        90,
	}
}

// NewSecuritySettingsResponse converts the stored row into its DTO.
func NewSecuritySettingsResponse(settings models.SecuritySettings) SecuritySettingsResponse {
	allowed := []string(settings.AllowedIPs)
	if allowed == nil {
		allowed = []string{}
	}
	updatedAt := settings.UpdatedAt
	return SecuritySettingsResponse{
		TwoFactorAuth:         settings.TwoFactorAuth,
		SessionTimeout:        settings.SessionTimeout,
		IPWhitelist:           settings.IPWhitelist,
		AllowedIPs:            allowed,
		LocationRestriction:   settings.LocationRestriction,
		ActivityLogging:       settings.ActivityLogging,
		LoginAttempts:         settings.LoginAttempts,
		RequireStrongPassword: settings.RequireStrongPassword,
		PasswordExpiry:        settings.PasswordExpiry,
		UpdatedBy:             settings.UpdatedBy,
		UpdatedAt:             &updatedAt,
	}
}

// VisualSettingsRequest is the save-visual-settings body.
type VisualSettingsRequest struct {
	PrimaryColor   string                 `json:"primaryColor" validate:"max=32"`
	SecondaryColor string                 `json:"secondaryColor" validate:"max=32"`
	AccentColor    string                 `json:"accentColor" validate:"max=32"`
	FontFamily     string                 `json:"fontFamily" validate:"max=128"`
	FontSize       string                 `json:"fontSize" validate:"max=32"`
	Theme          string                 `json:"theme" validate:"omitempty,oneof=light dark auto system"`
	LogoURL        string                 `json:"logoUrl" validate:"max=1024"`
	SiteName       string                 `json:"siteName" validate:"max=255"`
	Subtitle       string                 `json:"subtitle" validate:"max=255"`
	Settings       map[string]interface{} `json:"settings"`
	IsGlobal       bool                   `json:"isGlobal"`

	// Raw is the body as submitted. Its keys decide which fields a save overwrites.
	Raw json.RawMessage `json:"-"`
}

// VisualSettingsResponse serializes resolved visual settings.
type VisualSettingsResponse struct {
	ID             string                 `json:"id,omitempty"`
	PrimaryColor   string                 `json:"primaryColor"`
	SecondaryColor string                 `json:"secondaryColor"`
	AccentColor    string                 `json:"accentColor"`
	FontFamily     string                 `json:"fontFamily"`
	FontSize       string                 `json:"fontSize"`
	Theme          string                 `json:"theme"`
	LogoURL        string                 `json:"logoUrl"`
	SiteName       string                 `json:"siteName"`
	Subtitle       string                 `json:"subtitle"`
	Settings       map[string]interface{} `json:"settings"`
	IsGlobal       bool                   `json:"isGlobal"`
	UserID         *string                `json:"userId"`
	Source         string                 `json:"source"`
	UpdatedAt      *time.Time             `json:"updatedAt,omitempty"`
}

// DefaultVisualSettings is returned when neither a global nor a personal record exists.
func DefaultVisualSettings() VisualSettingsResponse {
	return VisualSettingsResponse{
		PrimaryColor:   "#1e40af",
		SecondaryColor: "#64748b",
		AccentColor:    "#f59e0b",
		FontFamily:     "Inter",
		FontSize:       "medium",
		Theme:          "light",
		LogoURL:        "",
		SiteName:       "School Administration",
		Subtitle:       "Management Portal",
		Settings:       map[string]interface{}{},
		Source:         VisualSourceDefault,
	}
}

// NewVisualSettingsResponse converts a stored row into its DTO.
func NewVisualSettingsResponse(settings models.VisualSettings) VisualSettingsResponse {
	source := VisualSourcePersonal
	if settings.IsGlobal {
		source = VisualSourceGlobal
	}
	bag := map[string]interface{}(settings.Settings)
	if bag == nil {
		bag = map[string]interface{}{}
	}
	updatedAt := settings.UpdatedAt
	return VisualSettingsResponse{
		ID:             settings.ID,
		PrimaryColor:   settings.PrimaryColor,
		SecondaryColor: settings.SecondaryColor,
		AccentColor:    settings.AccentColor,
		FontFamily:     settings.FontFamily,
		FontSize:       settings.FontSize,
		Theme:          settings.Theme,
		LogoURL:        settings.LogoURL,
		SiteName:       settings.SiteName,
		Subtitle:       settings.Subtitle,
		Settings:       bag,
		IsGlobal:       settings.IsGlobal,
		UserID:         settings.UserID,
		Source:         source,
		UpdatedAt:      &updatedAt,
	}
}

// LogoUploadResponse returns the public URL of an uploaded logo.
type LogoUploadResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	IsGlobal bool   `json:"isGlobal"`
}
