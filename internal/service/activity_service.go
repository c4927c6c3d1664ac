package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
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

var errInvalidJSON = errors.New("invalid json")

// Audit entry origins used for metrics.
const (
	originClient   = "client"
	originSettings = "settings"
)

// ActivityInput captures the details required to persist an audit entry.
type ActivityInput struct {
	Action    string
	Details   interface{}
	IPAddress string
	UserAgent string
	Meta      RequestMeta
}

// ActivityRecorder appends audit entries, optionally inside a caller's transaction.
type ActivityRecorder interface {
	RecordWith(ctx context.Context, repo repository.ActivityLogRepository, actor auth.Identity, input ActivityInput) (models.ActivityLog, error)
	Announce(ctx context.Context, entry models.ActivityLog)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	Log(ctx context.Context, actor auth.Identity, payload dto.ActivityLogCreateRequest, meta RequestMeta) (dto.ActivityLogResponse, error)
	List(ctx context.Context, caller auth.Identity, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	publisher AuditPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewActivityService constructs the activity log service. publisher may be nil.
func NewActivityService(repo repository.ActivityLogRepository, publisher AuditPublisher, validator *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		publisher: publisher,
		validator: validator,
		logger:    logger.With().Str("component", "activity_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/school-admin-api/internal/service/activity"),
		now:       time.Now,
	}
}

func (s *activityService) Log(ctx context.Context, actor auth.Identity, payload dto.ActivityLogCreateRequest, meta RequestMeta) (dto.ActivityLogResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activity.log")
	defer span.End()

	if _, err := auth.Authorize(actor, auth.Requirement{}); err != nil {
		span.SetStatus(codes.Error, "unauthenticated")
		return dto.ActivityLogResponse{}, err
	}

	if err := validatePayload(s.validator, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityLogResponse{}, err
	}

	var details interface{}
	if len(payload.Details) > 0 {
		details = payload.Details
	}

	entry, err := s.RecordWith(ctx, s.repo, actor, ActivityInput{
		Action:    payload.Action,
		Details:   details,
		IPAddress: payload.IPAddress,
		UserAgent: payload.UserAgent,
		Meta:      meta,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record_failed")
		return dto.ActivityLogResponse{}, err
	}

	observability.AuditEntries().WithLabelValues(originClient).Inc()
	s.Announce(ctx, entry)

	return dto.NewActivityLogResponse(entry), nil
}

func (s *activityService) RecordWith(ctx context.Context, repo repository.ActivityLogRepository, actor auth.Identity, input ActivityInput) (models.ActivityLog, error) {
	action := sanitizeText(input.Action)
	if action == "" {
		return models.ActivityLog{}, apperror.Validation("action is required", nil)
	}

	details, err := encodeDetails(input.Details)
	if err != nil {
		return models.ActivityLog{}, apperror.Validation("details must be valid JSON", err)
	}

	entry := models.ActivityLog{
		UserID:    actor.ID,
		UserEmail: actor.Email,
		UserName:  actor.DisplayName(),
		Action:    action,
		Details:   details,
		IPAddress: input.Meta.ClientIP(input.IPAddress),
		UserAgent: input.Meta.ClientUserAgent(input.UserAgent),
		CreatedAt: s.now().UTC(),
	}

	if err := repo.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to persist activity log")
		return models.ActivityLog{}, apperror.Storage("failed to record activity", err)
	}

	return entry, nil
}

// Announce publishes a committed entry. Failures are logged and counted only.
func (s *activityService) Announce(ctx context.Context, entry models.ActivityLog) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, dto.NewActivityLogResponse(entry)); err != nil {
		observability.AuditPublishFailures().Inc()
		s.logger.Warn().Err(err).Str("activity_id", entry.ID).Msg("failed to publish activity event")
	}
}

func (s *activityService) List(ctx context.Context, caller auth.Identity, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activity.list")
	defer span.End()

	decision, err := auth.Authorize(caller, auth.Requirement{Scope: auth.ScopeOwn})
	if err != nil {
		span.SetStatus(codes.Error, "unauthorized")
		return dto.ActivityLogListResponse{}, err
	}

	if req.Limit < 0 || req.Offset < 0 {
		return dto.ActivityLogListResponse{}, apperror.Validation("limit and offset must not be negative", nil)
	}
	limit := req.Limit
	if limit == 0 {
		limit = dto.DefaultActivityLimit
	} else if limit > dto.MaxActivityLimit {
		limit = dto.MaxActivityLimit
	}

	filter := repository.ActivityLogFilter{Limit: limit, Offset: req.Offset}
	if decision.Restricted() {
		filter.UserID = decision.OwnerID
	} else {
		filter.UserEmail = strings.TrimSpace(req.User)
		filter.Action = strings.TrimSpace(req.Action)
	}
	span.SetAttributes(
		attribute.Bool("activity.scoped", decision.Restricted()),
		attribute.Int("activity.limit", limit),
		attribute.Int("activity.offset", req.Offset),
	)

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_failed")
		return dto.ActivityLogListResponse{}, apperror.Storage("failed to fetch activity logs", err)
	}

	logs := make([]dto.ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, dto.NewActivityLogResponse(entry))
	}

	return dto.ActivityLogListResponse{
		Logs:       logs,
		Pagination: dto.NewPaginationMeta(total, limit, req.Offset),
	}, nil
}

func encodeDetails(details interface{}) (datatypes.JSON, error) {
	switch v := details.(type) {
	case nil:
		return datatypes.JSON("{}"), nil
	case json.RawMessage:
		if len(v) == 0 {
			return datatypes.JSON("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errInvalidJSON
		}
		return datatypes.JSON(v), nil
	}

	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}
