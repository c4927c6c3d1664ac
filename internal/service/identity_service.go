package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

// IdentityService resolves token subjects into caller identities.
type IdentityService interface {
	Resolve(ctx context.Context, subject string) (auth.Identity, error)
}

type identityService struct {
	profiles repository.ProfileRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewIdentityService constructs the identity resolver. A nil cache disables caching.
func NewIdentityService(profiles repository.ProfileRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) IdentityService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &identityService{
		profiles: profiles,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "identity_service").Logger(),
	}
}

func (s *identityService) Resolve(ctx context.Context, subject string) (auth.Identity, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return auth.Identity{}, apperror.Unauthenticated("invalid or expired token")
	}

	cacheKey := fmt.Sprintf("identity:%s", subject)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var identity auth.Identity
			if unmarshalErr := json.Unmarshal([]byte(cached), &identity); unmarshalErr == nil && identity.ID != "" {
				return identity, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read identity cache")
		}
	}

	profile, err := s.profiles.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, apperror.Unauthenticated("invalid or expired token")
		}
		return auth.Identity{}, apperror.Storage("failed to resolve user profile", err)
	}

	identity := auth.Identity{
		ID:    profile.ID,
		Email: profile.Email,
		Name:  strings.TrimSpace(profile.FullName),
		Role:  strings.ToLower(strings.TrimSpace(profile.Role)),
	}

	if !models.IsKnownRole(identity.Role) {
		s.logger.Warn().Str("user_id", identity.ID).Str("role", identity.Role).Msg("profile has unrecognised role")
	}

	if s.cache != nil {
		if payload, err := json.Marshal(identity); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store identity cache")
			}
		}
	}

	return identity, nil
}
