package handlers

import (
	"github.com/feedmerge/server/internal/service"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	s     service.PostService
	media service.MediaService
}

func NewPostHandler(s service.PostService, media service.MediaService) *PostHandler {
	return &PostHandler{s: s, media: media}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PostCreation
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	response, err := h.s.Get(c.Context(), userID, int64(postID))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	var req transfer.PostUpdate
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.s.Update(c.Context(), userID, int64(postID), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid post id",
		})
	}

	if err := h.s.Delete(c.Context(), userID, int64(postID)); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.MessageResponse{Message: "post removed"})
}

func (h *PostHandler) CreateUploadURL(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.UploadURLRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.media.CreateUploadURL(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}
