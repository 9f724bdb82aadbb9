package handlers

import (
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/glowpost/internal/service"
)

type MediaHandler struct {
	s        service.MediaService
	maxBytes int64
}

func NewMediaHandler(service service.MediaService, maxBytes int64) *MediaHandler {
	return &MediaHandler{s: service, maxBytes: maxBytes}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return message(c, fiber.StatusBadRequest, "file is required")
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return message(c, fiber.StatusRequestEntityTooLarge, "File is too large")
	}

	file, err := header.Open()
	if err != nil {
		slog.Info(err.Error())
		return message(c, fiber.StatusBadRequest, "Unable to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Info(err.Error())
		return message(c, fiber.StatusBadRequest, "Unable to read file")
	}

	resp, err := h.s.Upload(c.UserContext(), GetUserID(c), data)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}
