package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/observability"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

// ActionVisualSettingsUpdated is the audit action written on every visual settings save.
const ActionVisualSettingsUpdated = "visual_settings_updated"

const visualCacheVersionKey = "settings:visual:version"

// VisualSettingsService resolves and stores visual settings.
type VisualSettingsService interface {
	Get(ctx context.Context, caller auth.Identity) (dto.VisualSettingsResponse, error)
	Save(ctx context.Context, caller auth.Identity, payload dto.VisualSettingsRequest, meta RequestMeta) (dto.VisualSettingsResponse, error)
}

type visualSettingsService struct {
	repo      repository.VisualSettingsRepository
	tx        repository.Transactor
	activity  ActivityRecorder
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewVisualSettingsService constructs the visual settings service. A nil cache disables caching.
func NewVisualSettingsService(repo repository.VisualSettingsRepository, tx repository.Transactor, activity ActivityRecorder, cache *redis.Client, ttl time.Duration, validator *validator.Validate, logger zerolog.Logger) VisualSettingsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &visualSettingsService{
		repo:      repo,
		tx:        tx,
		activity:  activity,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validator,
		logger:    logger.With().Str("component", "visual_settings_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/school-admin-api/internal/service/visual_settings"),
	}
}

// Get returns the global record if present, else the caller's personal record, else defaults.
func (s *visualSettingsService) Get(ctx context.Context, caller auth.Identity) (dto.VisualSettingsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "visual_settings.get")
	defer span.End()

	if _, err := auth.Authorize(caller, auth.Requirement{}); err != nil {
		return dto.VisualSettingsResponse{}, err
	}

	cacheKey := s.resolvedKey(ctx, caller.ID)
	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.VisualSettingsResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				observability.SettingsCacheRequests().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("visual_settings.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read visual settings cache")
		}
		observability.SettingsCacheRequests().WithLabelValues("miss").Inc()
	}

	response, err := s.resolve(ctx, caller.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup_failed")
		return dto.VisualSettingsResponse{}, err
	}
	span.SetAttributes(attribute.String("visual_settings.source", response.Source))

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store visual settings cache")
			}
		}
	}

	return response, nil
}

func (s *visualSettingsService) resolve(ctx context.Context, userID string) (dto.VisualSettingsResponse, error) {
	global, found, err := s.repo.FindByScope(ctx, models.VisualScopeGlobal)
	if err != nil {
		return dto.VisualSettingsResponse{}, apperror.Storage("failed to load visual settings", err)
	}
	if found {
		return dto.NewVisualSettingsResponse(global), nil
	}

	personal, found, err := s.repo.FindByScope(ctx, models.VisualScopeForUser(userID))
	if err != nil {
		return dto.VisualSettingsResponse{}, apperror.Storage("failed to load visual settings", err)
	}
	if found {
		return dto.NewVisualSettingsResponse(personal), nil
	}

	return dto.DefaultVisualSettings(), nil
}

// Save upserts the global or personal record and audits the payload in the same transaction.
func (s *visualSettingsService) Save(ctx context.Context, caller auth.Identity, payload dto.VisualSettingsRequest, meta RequestMeta) (dto.VisualSettingsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "visual_settings.save")
	span.SetAttributes(attribute.Bool("visual_settings.global", payload.IsGlobal))
	defer span.End()

	requirement := auth.Requirement{}
	if payload.IsGlobal {
		requirement = adminOnly
	}
	if _, err := auth.Authorize(caller, requirement); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return dto.VisualSettingsResponse{}, err
	}

	if err := validatePayload(s.validator, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.VisualSettingsResponse{}, err
	}

	scope := dto.VisualSourcePersonal
	scopeKey := models.VisualScopeForUser(caller.ID)
	if payload.IsGlobal {
		scope = dto.VisualSourceGlobal
		scopeKey = models.VisualScopeGlobal
	}

	var (
		stored models.VisualSettings
		entry  models.ActivityLog
	)
	err := s.tx.WithinTransaction(ctx, func(stores repository.Stores) error {
		current, found, err := stores.Visual.FindByScope(ctx, scopeKey)
		if err != nil {
			return apperror.Storage("failed to load visual settings", err)
		}
		base := dto.DefaultVisualSettings()
		if found {
			base = dto.NewVisualSettingsResponse(current)
		}

		model := mergeVisualSettings(base, payload)
		model.ScopeKey = scopeKey
		if !payload.IsGlobal {
			userID := caller.ID
			model.UserID = &userID
		}

		stored, err = stores.Visual.Upsert(ctx, model)
		if err != nil {
			return apperror.Storage("failed to save visual settings", err)
		}

		entry, err = s.activity.RecordWith(ctx, stores.Activity, caller, ActivityInput{
			Action:  ActionVisualSettingsUpdated,
			Details: map[string]interface{}{"changes": submittedChanges(payload.Raw, payload), "scope": scope},
			Meta:    meta,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save_failed")
		s.logger.Error().Err(err).Str("user_id", caller.ID).Str("scope", scope).Msg("failed to save visual settings")
		return dto.VisualSettingsResponse{}, err
	}

	s.invalidate(ctx, caller.ID, payload.IsGlobal)
	observability.AuditEntries().WithLabelValues(originSettings).Inc()
	s.activity.Announce(ctx, entry)

	return dto.NewVisualSettingsResponse(stored), nil
}

// mergeVisualSettings overlays the fields the client sent onto base. Fields left
// empty that have a documented default fall back to it.
func mergeVisualSettings(base dto.VisualSettingsResponse, payload dto.VisualSettingsRequest) models.VisualSettings {
	sent := parseSubmittedFields(payload.Raw)
	defaults := dto.DefaultVisualSettings()

	pick := func(key, value, current, fallback string) string {
		if sent.has(key, value != "") {
			current = value
		}
		if current == "" {
			return fallback
		}
		return current
	}

	settings := base.Settings
	if sent.has("settings", payload.Settings != nil) {
		settings = payload.Settings
	}
	if settings == nil {
		settings = map[string]interface{}{}
	}

	return models.VisualSettings{
		IsGlobal:       payload.IsGlobal,
		PrimaryColor:   pick("primaryColor", payload.PrimaryColor, base.PrimaryColor, defaults.PrimaryColor),
		SecondaryColor: pick("secondaryColor", payload.SecondaryColor, base.SecondaryColor, defaults.SecondaryColor),
		AccentColor:    pick("accentColor", payload.AccentColor, base.AccentColor, defaults.AccentColor),
		FontFamily:     pick("fontFamily", payload.FontFamily, base.FontFamily, defaults.FontFamily),
		FontSize:       pick("fontSize", payload.FontSize, base.FontSize, defaults.FontSize),
		Theme:          pick("theme", payload.Theme, base.Theme, defaults.Theme),
		LogoURL:        pick("logoUrl", payload.LogoURL, base.LogoURL, ""),
		SiteName:       pick("siteName", sanitizeText(payload.SiteName), base.SiteName, defaults.SiteName),
		Subtitle:       pick("subtitle", sanitizeText(payload.Subtitle), base.Subtitle, ""),
		Settings:       datatypes.JSONMap(settings),
	}
}

// resolvedKey returns the cache key of a user's resolved settings, or "" when caching is off.
// Keys embed a version that global writes bump, invalidating every user at once.
func (s *visualSettingsService) resolvedKey(ctx context.Context, userID string) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, visualCacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("failed to read visual settings cache version")
		return ""
	}
	return fmt.Sprintf("settings:visual:v%d:%s", version, userID)
}

func (s *visualSettingsService) invalidate(ctx context.Context, userID string, global bool) {
	if s.cache == nil {
		return
	}
	if global {
		if err := s.cache.Incr(ctx, visualCacheVersionKey).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to bump visual settings cache version")
		}
		return
	}
	if key := s.resolvedKey(ctx, userID); key != "" {
		if err := s.cache.Del(ctx, key).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to evict visual settings cache")
		}
	}
}
