package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/observability"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

var allowedLogoTypes = map[string]struct{}{
	"image/png":     {},
	"image/jpeg":    {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// LogoService validates and stores branding logos.
type LogoService interface {
	Upload(ctx context.Context, caller auth.Identity, file *multipart.FileHeader, isGlobal bool) (dto.LogoUploadResponse, error)
}

type logoService struct {
	storage FileStorage
	maxSize int64
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewLogoService constructs the logo upload service.
func NewLogoService(storage FileStorage, maxSizeMB int, logger zerolog.Logger) LogoService {
	if maxSizeMB <= 0 {
		maxSizeMB = 2
	}
	return &logoService{
		storage: storage,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		logger:  logger.With().Str("component", "logo_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/school-admin-api/internal/service/logo"),
	}
}

func (s *logoService) Upload(ctx context.Context, caller auth.Identity, file *multipart.FileHeader, isGlobal bool) (dto.LogoUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "logo.upload")
	defer span.End()
	span.SetAttributes(attribute.Bool("logo.global", isGlobal))

	requirement := auth.Requirement{}
	if isGlobal {
		requirement = adminOnly
	}
	if _, err := auth.Authorize(caller, requirement); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return dto.LogoUploadResponse{}, err
	}

	if file == nil {
		return dto.LogoUploadResponse{}, s.reject(span, "missing", apperror.Validation("file is required", nil))
	}
	if file.Size > s.maxSize {
		return dto.LogoUploadResponse{}, s.reject(span, "size", apperror.Validation("logo exceeds maximum allowed size", nil))
	}

	handle, err := file.Open()
	if err != nil {
		return dto.LogoUploadResponse{}, s.reject(span, "read", apperror.Validation("unable to read uploaded file", err))
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return dto.LogoUploadResponse{}, s.reject(span, "read", apperror.Validation("unable to read uploaded file", err))
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.LogoUploadResponse{}, s.reject(span, "size", apperror.Validation("logo exceeds maximum allowed size", nil))
	}

	mime := strings.ToLower(strings.SplitN(mimetype.Detect(buf.Bytes()).String(), ";", 2)[0])
	span.SetAttributes(attribute.String("logo.mime", mime))
	if _, ok := allowedLogoTypes[mime]; !ok {
		return dto.LogoUploadResponse{}, s.reject(span, "type", apperror.Validation("logo must be a PNG, JPEG, GIF, WebP or SVG image", nil))
	}

	name := "logo-global"
	if !isGlobal {
		name = "logo-" + caller.ID
	}

	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.ID).Msg("failed to store logo")
		return dto.LogoUploadResponse{}, s.reject(span, "storage", apperror.Storage("failed to store logo", err))
	}

	observability.LogoUploads().WithLabelValues("stored").Inc()
	return dto.LogoUploadResponse{
		URL:      url,
		MimeType: mime,
		Size:     int64(buf.Len()),
		IsGlobal: isGlobal,
	}, nil
}

func (s *logoService) reject(span trace.Span, reason string, err error) error {
	observability.LogoUploads().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}
