package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/internal/utils"
)

// ActivityHandler serves get-activity-logs and log-activity.
type ActivityHandler struct {
	service   service.ActivityService
	responder utils.ErrorResponder
	logger    zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, responder utils.ErrorResponder, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:   service,
		responder: responder,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// List returns a page of audit entries visible to the caller.
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "invalid query")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "invalid query")
	}

	response, err := h.service.List(c.UserContext(), callerFromContext(c), dto.ActivityLogListRequest{
		Limit:  limit,
		Offset: offset,
		Action: strings.TrimSpace(c.Query("action")),
		User:   strings.TrimSpace(c.Query("user")),
	})
	if err != nil {
		return respondError(c, h.logger, h.responder, err, "failed to fetch activity logs")
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// Log appends a client-reported audit entry.
func (h *ActivityHandler) Log(c *fiber.Ctx) error {
	var payload dto.ActivityLogCreateRequest
	if _, err := parseJSONBody(c, &payload); err != nil {
		return respondError(c, h.logger, h.responder, err, "invalid payload")
	}

	if _, err := h.service.Log(c.UserContext(), callerFromContext(c), payload, requestMeta(c)); err != nil {
		return respondError(c, h.logger, h.responder, err, "failed to log activity")
	}

	return utils.SendSuccess(c, "Activity logged successfully", nil)
}
