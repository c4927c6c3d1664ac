package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/internal/utils"
)

// SecuritySettingsHandler serves the admin-only security policy endpoints.
type SecuritySettingsHandler struct {
	service   service.SecuritySettingsService
	responder utils.ErrorResponder
	logger    zerolog.Logger
}

// NewSecuritySettingsHandler constructs the handler.
func NewSecuritySettingsHandler(service service.SecuritySettingsService, responder utils.ErrorResponder, logger zerolog.Logger) *SecuritySettingsHandler {
	return &SecuritySettingsHandler{
		service:   service,
		responder: responder,
		logger:    logger.With().Str("component", "security_settings_handler").Logger(),
	}
}

// Get returns the stored security settings or the defaults.
func (h *SecuritySettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.service.Get(c.UserContext(), callerFromContext(c))
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "failed to load security settings")
	}
	return utils.SendData(c, settings)
}

// Save overwrites the security settings.
func (h *SecuritySettingsHandler) Save(c *fiber.Ctx) error {
	var payload dto.SecuritySettingsRequest
	raw, err := parseJSONBody(c, &payload)
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "invalid payload")
	}
	payload.Raw = raw

	settings, err := h.service.Save(c.UserContext(), callerFromContext(c), payload, requestMeta(c))
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "failed to save security settings")
	}

	return utils.SendSuccess(c, "Security settings saved successfully", settings)
}
