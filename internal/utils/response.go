package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

// APIResponse describes the success envelope used by the functions.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the failure envelope: {"error": message}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SendData sends {success: true, data}.
func SendData(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{Success: true, Data: data})
}

// SendSuccess sends {success: true, message, data}; data is omitted when nil.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}

// ErrorResponder renders application errors. With LegacyStatus every failure
// is answered with 500; otherwise the error kind selects 401/403/400/500.
type ErrorResponder struct {
	LegacyStatus bool
}

// Send writes err, falling back to fallback when err carries no public message.
func (r ErrorResponder) Send(c *fiber.Ctx, err error, fallback string) error {
	return SendError(c, apperror.Status(err, r.LegacyStatus), apperror.PublicMessage(err, fallback))
}
