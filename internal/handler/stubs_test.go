package handler_test

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
)

var (
	adminCaller   = auth.Identity{ID: "admin-1", Email: "admin@school.test", Name: "Ada Admin", Role: "admin"}
	teacherCaller = auth.Identity{ID: "teacher-1", Email: "teacher@school.test", Name: "Tom Teacher", Role: "teacher"}
)

// withCaller mimics the auth gate by storing identity the way it does.
func withCaller(app *fiber.App, identity auth.Identity) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("identity", identity)
		return c.Next()
	})
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

type stubActivityService struct {
	listResponse dto.ActivityLogListResponse
	lastList     dto.ActivityLogListRequest
	lastCaller   auth.Identity
	lastPayload  dto.ActivityLogCreateRequest
	lastMeta     service.RequestMeta
	err          error
}

func (s *stubActivityService) RecordWith(context.Context, repository.ActivityLogRepository, auth.Identity, service.ActivityInput) (models.ActivityLog, error) {
	return models.ActivityLog{}, nil
}

func (s *stubActivityService) Announce(context.Context, models.ActivityLog) {}

func (s *stubActivityService) Log(_ context.Context, actor auth.Identity, payload dto.ActivityLogCreateRequest, meta service.RequestMeta) (dto.ActivityLogResponse, error) {
	s.lastCaller = actor
	s.lastPayload = payload
	s.lastMeta = meta
	if s.err != nil {
		return dto.ActivityLogResponse{}, s.err
	}
	return dto.ActivityLogResponse{ID: "log-1", Action: payload.Action}, nil
}

func (s *stubActivityService) List(_ context.Context, caller auth.Identity, req dto.ActivityLogListRequest) (dto.ActivityLogListResponse, error) {
	s.lastCaller = caller
	s.lastList = req
	if s.err != nil {
		return dto.ActivityLogListResponse{}, s.err
	}
	return s.listResponse, nil
}

type stubSecurityService struct {
	settings    dto.SecuritySettingsResponse
	lastPayload dto.SecuritySettingsRequest
	err         error
}

func (s *stubSecurityService) Get(context.Context, auth.Identity) (dto.SecuritySettingsResponse, error) {
	if s.err != nil {
		return dto.SecuritySettingsResponse{}, s.err
	}
	return s.settings, nil
}

func (s *stubSecurityService) Save(_ context.Context, _ auth.Identity, payload dto.SecuritySettingsRequest, _ service.RequestMeta) (dto.SecuritySettingsResponse, error) {
	s.lastPayload = payload
	if s.err != nil {
		return dto.SecuritySettingsResponse{}, s.err
	}
	return s.settings, nil
}

type stubVisualService struct {
	settings    dto.VisualSettingsResponse
	lastPayload dto.VisualSettingsRequest
	err         error
}

func (s *stubVisualService) Get(context.Context, auth.Identity) (dto.VisualSettingsResponse, error) {
	if s.err != nil {
		return dto.VisualSettingsResponse{}, s.err
	}
	return s.settings, nil
}

func (s *stubVisualService) Save(_ context.Context, _ auth.Identity, payload dto.VisualSettingsRequest, _ service.RequestMeta) (dto.VisualSettingsResponse, error) {
	s.lastPayload = payload
	if s.err != nil {
		return dto.VisualSettingsResponse{}, s.err
	}
	return s.settings, nil
}

type stubLogoService struct {
	lastGlobal bool
	lastName   string
	err        error
}

func (s *stubLogoService) Upload(_ context.Context, _ auth.Identity, file *multipart.FileHeader, isGlobal bool) (dto.LogoUploadResponse, error) {
	s.lastGlobal = isGlobal
	if file != nil {
		s.lastName = file.Filename
	}
	if s.err != nil {
		return dto.LogoUploadResponse{}, s.err
	}
	return dto.LogoUploadResponse{URL: "https://cdn.school.test/logo-global.png", MimeType: "image/png", Size: 68, IsGlobal: isGlobal}, nil
}
