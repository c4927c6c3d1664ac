package handler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/internal/utils"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperror.Validation(key+" must be an integer", err)
	}
	if parsed < 0 {
		return 0, apperror.Validation(key+" must not be negative", nil)
	}
	return parsed, nil
}

func parseFormBool(c *fiber.Ctx, key string) (bool, error) {
	value := strings.TrimSpace(c.FormValue(key))
	if value == "" {
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, apperror.Validation(key+" must be a boolean", err)
	}
	return parsed, nil
}

// parseJSONBody decodes the request body into out and returns a copy of the raw bytes.
func parseJSONBody(c *fiber.Ctx, out interface{}) (json.RawMessage, error) {
	if err := c.BodyParser(out); err != nil {
		return nil, apperror.Validation("invalid JSON body", err)
	}
	raw := make(json.RawMessage, len(c.Body()))
	copy(raw, c.Body())
	return raw, nil
}

func callerFromContext(c *fiber.Ctx) auth.Identity {
	identity, _ := middleware.IdentityFromContext(c)
	return identity
}

func requestMeta(c *fiber.Ctx) service.RequestMeta {
	return service.RequestMeta{
		ForwardedFor: c.Get(fiber.HeaderXForwardedFor),
		RealIP:       c.Get("X-Real-IP"),
		UserAgent:    c.Get(fiber.HeaderUserAgent),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError logs err and renders it through responder.
func respondError(c *fiber.Ctx, base zerolog.Logger, responder utils.ErrorResponder, err error, fallback string) error {
	logger := requestLogger(base, c)
	event := logger.Warn()
	if apperror.Status(err, false) >= fiber.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("path", c.Path()).Msg(fallback)

	return responder.Send(c, err, fallback)
}
