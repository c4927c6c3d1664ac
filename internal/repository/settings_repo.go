package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/school-admin-api/internal/models"
)

var securitySettingsColumns = []string{
	"two_factor_auth", "session_timeout", "ip_whitelist", "allowed_ips", "location_restriction",
	"activity_logging", "login_attempts", "require_strong_password", "password_expiry", "updated_by", "updated_at",
}

var visualSettingsColumns = []string{
	"user_id", "is_global", "primary_color", "secondary_color", "accent_color", "font_family", "font_size",
	"theme", "logo_url", "site_name", "subtitle", "settings", "updated_at",
}

// SecuritySettingsRepository stores the security policy singleton.
type SecuritySettingsRepository interface {
	Find(ctx context.Context) (models.SecuritySettings, bool, error)
	Upsert(ctx context.Context, settings models.SecuritySettings) (models.SecuritySettings, error)
}

// VisualSettingsRepository stores visual settings keyed by scope.
type VisualSettingsRepository interface {
	FindByScope(ctx context.Context, scopeKey string) (models.VisualSettings, bool, error)
	Upsert(ctx context.Context, settings models.VisualSettings) (models.VisualSettings, error)
}

type securitySettingsRepository struct {
	db *gorm.DB
}

// NewSecuritySettingsRepository constructs the security settings repository.
func NewSecuritySettingsRepository(db *gorm.DB) SecuritySettingsRepository {
	return &securitySettingsRepository{db: db}
}

func (r *securitySettingsRepository) Find(ctx context.Context) (models.SecuritySettings, bool, error) {
	var settings models.SecuritySettings
	err := r.db.WithContext(ctx).Take(&settings, "id = ?", models.SecuritySettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SecuritySettings{}, false, nil
	}
	if err != nil {
		return models.SecuritySettings{}, false, err
	}
	return settings, true, nil
}

// Upsert overwrites the singleton row. Concurrent writers resolve as last write wins.
func (r *securitySettingsRepository) Upsert(ctx context.Context, settings models.SecuritySettings) (models.SecuritySettings, error) {
	settings.ID = models.SecuritySettingsID
	if settings.AllowedIPs == nil {
		settings.AllowedIPs = []string{}
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(securitySettingsColumns),
	}).Create(&settings).Error
	if err != nil {
		return models.SecuritySettings{}, err
	}

	stored, _, err := r.Find(ctx)
	return stored, err
}

type visualSettingsRepository struct {
	db *gorm.DB
}

// NewVisualSettingsRepository constructs the visual settings repository.
func NewVisualSettingsRepository(db *gorm.DB) VisualSettingsRepository {
	return &visualSettingsRepository{db: db}
}

func (r *visualSettingsRepository) FindByScope(ctx context.Context, scopeKey string) (models.VisualSettings, bool, error) {
	var settings models.VisualSettings
	err := r.db.WithContext(ctx).Take(&settings, "scope_key = ?", scopeKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VisualSettings{}, false, nil
	}
	if err != nil {
		return models.VisualSettings{}, false, err
	}
	return settings, true, nil
}

// Upsert inserts or replaces the record identified by ScopeKey and returns the stored row.
func (r *visualSettingsRepository) Upsert(ctx context.Context, settings models.VisualSettings) (models.VisualSettings, error) {
	if settings.ScopeKey == "" {
		return models.VisualSettings{}, errors.New("visual settings scope key is required")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope_key"}},
		DoUpdates: clause.AssignmentColumns(visualSettingsColumns),
	}).Create(&settings).Error
	if err != nil {
		return models.VisualSettings{}, err
	}

	stored, _, err := r.FindByScope(ctx, settings.ScopeKey)
	return stored, err
}
