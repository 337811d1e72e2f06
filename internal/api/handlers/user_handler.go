package handlers

import (
	"github.com/feedmerge/server/internal/apperror"
	"github.com/feedmerge/server/internal/repository"
	"github.com/feedmerge/server/internal/service"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	u       repository.UserRepository
	erasure service.ErasureService
}

func NewUserHandler(u repository.UserRepository, erasure service.ErasureService) *UserHandler {
	return &UserHandler{u: u, erasure: erasure}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userID := GetUserID(c)

	user, exists, err := h.u.GetByID(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	if !exists {
		return respondError(c, apperror.New(apperror.NotFound, "user not found"))
	}

	return c.Status(fiber.StatusOK).JSON(transfer.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	})
}

func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if err := h.erasure.EraseUser(c.Context(), userID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.MessageResponse{Message: "account deleted"})
}
