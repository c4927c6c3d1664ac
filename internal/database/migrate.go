package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Profile{}, &models.ActivityLog{}, &models.SecuritySettings{}, &models.VisualSettings{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
