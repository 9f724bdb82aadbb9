package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/glowpost/internal/service"
	"github.com/maheshrc27/glowpost/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req transfer.SchedulePostRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}

	post, err := h.s.Schedule(c.UserContext(), GetUserID(c), &req)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.ListAll(c.UserContext(), GetUserID(c), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) ListScheduledPosts(c *fiber.Ctx) error {
	posts, err := h.s.ListScheduled(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, ok := paramID(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid post id")
	}

	post, err := h.s.Get(c.UserContext(), GetUserID(c), postID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) PostHistory(c *fiber.Ctx) error {
	postID, ok := paramID(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid post id")
	}

	history, err := h.s.History(c.UserContext(), GetUserID(c), postID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(history)
}

// UpdatePostStatus lets the external publisher report how a post went.
func (h *PostHandler) UpdatePostStatus(c *fiber.Ctx) error {
	postID, ok := paramID(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid post id")
	}

	var req transfer.UpdatePostStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid request body")
	}

	post, err := h.s.UpdateStatus(c.UserContext(), GetUserID(c), postID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID, ok := paramID(c)
	if !ok {
		return message(c, fiber.StatusBadRequest, "Invalid post id")
	}

	if err := h.s.Delete(c.UserContext(), GetUserID(c), postID); err != nil {
		return writeError(c, err)
	}

	return message(c, fiber.StatusOK, "Post deleted")
}
