package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/internal/utils"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

// VisualSettingsHandler serves the branding endpoints.
type VisualSettingsHandler struct {
	service   service.VisualSettingsService
	logos     service.LogoService
	responder utils.ErrorResponder
	logger    zerolog.Logger
}

// NewVisualSettingsHandler constructs the handler. logos may be nil when uploads are disabled.
func NewVisualSettingsHandler(service service.VisualSettingsService, logos service.LogoService, responder utils.ErrorResponder, logger zerolog.Logger) *VisualSettingsHandler {
	return &VisualSettingsHandler{
		service:   service,
		logos:     logos,
		responder: responder,
		logger:    logger.With().Str("component", "visual_settings_handler").Logger(),
	}
}

// Get resolves the settings that apply to the caller.
func (h *VisualSettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.service.Get(c.UserContext(), callerFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "failed to load visual settings")
	}
	return utils.SendData(c, settings)
}

// Save stores global or personal visual settings.
func (h *VisualSettingsHandler) Save(c *fiber.Ctx) error {
	var payload dto.VisualSettingsRequest
	raw, err := parseJSONBody(c, &payload)
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "invalid payload")
	}
	payload.Raw = raw

	settings, err := h.service.Save(c.UserContext(), callerFromContext(c), payload, requestMeta(c))
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "failed to save visual settings")
	}

	return utils.SendSuccess(c, "Visual settings saved successfully", settings)
}

// UploadLogo stores a branding image and returns its public URL.
func (h *VisualSettingsHandler) UploadLogo(c *fiber.Ctx) error {
	if h.logos == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "logo uploads are not configured")
	}

	isGlobal, err := parseFormBool(c, "isGlobal")
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "invalid form")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.logger, h.responder, apperror.Validation("file is required", err), "invalid form")
	}

	result, err := h.logos.Upload(c.UserContext(), callerFromContext(c), file, isGlobal)
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "failed to upload logo")
	}

	return utils.SendSuccess(c, "Logo uploaded successfully", result)
}
