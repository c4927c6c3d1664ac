package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/observability"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

// ActionSecuritySettingsUpdated is the audit action written on every security settings save.
const ActionSecuritySettingsUpdated = "security_settings_updated"

var adminOnly = auth.Requirement{Role: models.RoleAdmin}

// SecuritySettingsService reads and writes the security policy singleton.
type SecuritySettingsService interface {
	Get(ctx context.Context, caller auth.Identity) (dto.SecuritySettingsResponse, error)
	Save(ctx context.Context, caller auth.Identity, payload dto.SecuritySettingsRequest, meta RequestMeta) (dto.SecuritySettingsResponse, error)
}

type securitySettingsService struct {
	repo      repository.SecuritySettingsRepository
	tx        repository.Transactor
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSecuritySettingsService constructs the security settings service.
func NewSecuritySettingsService(repo repository.SecuritySettingsRepository, tx repository.Transactor, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) SecuritySettingsService {
	return &securitySettingsService{
		repo:      repo,
		tx:        tx,
		activity:  activity,
		validator: validator,
		logger:    logger.With().Str("component", "security_settings_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/school-admin-api/internal/service/security_settings"),
	}
}

func (s *securitySettingsService) Get(ctx context.Context, caller auth.Identity) (dto.SecuritySettingsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "security_settings.get")
	defer span.End()

	if _, err := auth.Authorize(caller, adminOnly); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return dto.SecuritySettingsResponse{}, err
	}

	settings, found, err := s.repo.Find(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup_failed")
		return dto.SecuritySettingsResponse{}, apperror.Storage("failed to load security settings", err)
	}
	if !found {
		return dto.DefaultSecuritySettings(), nil
	}

	return dto.NewSecuritySettingsResponse(settings), nil
}

// Save overwrites the singleton (last write wins) and audits the full payload in the same transaction.
func (s *securitySettingsService) Save(ctx context.Context, caller auth.Identity, payload dto.SecuritySettingsRequest, meta RequestMeta) (dto.SecuritySettingsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "security_settings.save")
	defer span.End()

	if _, err := auth.Authorize(caller, adminOnly); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return dto.SecuritySettingsResponse{}, err
	}

	if err := validatePayload(s.validator, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SecuritySettingsResponse{}, err
	}

	allowed := make([]string, 0, len(payload.AllowedIPs))
	allowed = append(allowed, payload.AllowedIPs...)
	model := models.SecuritySettings{
		TwoFactorAuth:         payload.TwoFactorAuth,
		SessionTimeout:        payload.SessionTimeout,
		IPWhitelist:           payload.IPWhitelist,
		AllowedIPs:            allowed,
		LocationRestriction:   payload.LocationRestriction,
		ActivityLogging:       payload.ActivityLogging,
		LoginAttempts:         payload.LoginAttempts,
		RequireStrongPassword: payload.RequireStrongPassword,
		PasswordExpiry:        payload.PasswordExpiry,
		UpdatedBy:             caller.ID,
	}

	var (
		stored models.SecuritySettings
		entry  models.ActivityLog
	)
	err := s.tx.WithinTransaction(ctx, func(stores repository.Stores) error {
		var err error
		stored, err = stores.Security.Upsert(ctx, model)
		if err != nil {
			return apperror.Storage("failed to save security settings", err)
		}

		entry, err = s.activity.RecordWith(ctx, stores.Activity, caller, ActivityInput{
			Action:  ActionSecuritySettingsUpdated,
			Details: map[string]interface{}{"changes": submittedChanges(payload.Raw, payload)},
			Meta:    meta,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save_failed")
		s.logger.Error().Err(err).Str("user_id", caller.ID).Msg("failed to save security settings")
		return dto.SecuritySettingsResponse{}, err
	}

	observability.AuditEntries().WithLabelValues(originSettings).Inc()
	s.activity.Announce(ctx, entry)
	s.logger.Info().Str("user_id", caller.ID).Msg("security settings updated")

	return dto.NewSecuritySettingsResponse(stored), nil
}
