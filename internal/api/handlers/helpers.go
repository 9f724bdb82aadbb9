package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/glowpost/internal/service"
	"github.com/maheshrc27/glowpost/internal/transfer"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(transfer.MessageResponse{Message: msg})
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(c *fiber.Ctx, err error) error {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
		ce *service.ConfigurationError
	)

	switch {
	case errors.As(err, &ve):
		return message(c, fiber.StatusBadRequest, ve.Message)
	case errors.As(err, &nf):
		return message(c, fiber.StatusNotFound, nf.Message)
	case errors.As(err, &ce):
		return message(c, fiber.StatusBadRequest, ce.Error())
	default:
		slog.Error(err.Error(), "method", c.Method(), "path", c.Path())
		return message(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func paramID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
