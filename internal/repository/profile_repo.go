package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// ProfileRepository reads account profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (models.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs the profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Take(&profile, "id = ?", id).Error
	return profile, err
}
