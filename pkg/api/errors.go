package api

import (
	"errors"

	"github.com/1F47E/geo-explored/pkg/explored"
	"github.com/gofiber/fiber/v2"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "storage_unavailable", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// indexError maps index errors to responses
func indexError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, explored.ErrMalformedPoint), errors.Is(err, explored.ErrInvalidBoundingBox):
		return errBadRequest(c, err.Error())
	case errors.Is(err, explored.ErrStorageUnavailable):
		return errUnavailable(c, err.Error())
	}
	return errInternal(c, err.Error())
}
