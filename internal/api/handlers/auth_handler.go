package handlers

import (
	"github.com/feedmerge/server/internal/service"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	s      service.AuthService
	social service.SocialLoginService
}

func NewAuthHandler(s service.AuthService, social service.SocialLoginService) *AuthHandler {
	return &AuthHandler{s: s, social: social}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req transfer.RegisterRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.s.Register(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.s.Login(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req transfer.RefreshRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.s.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req transfer.RefreshRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.s.Logout(c.Context(), req.RefreshToken); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) SocialLoginStart(c *fiber.Ctx) error {
	var req transfer.OAuthStartRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.social.Start(c.Context(), req.Platform)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *AuthHandler) SocialLoginExchange(c *fiber.Ctx) error {
	var req transfer.OAuthExchangeRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.social.Exchange(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *AuthHandler) SaveDeviceToken(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.DeviceTokenRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	if err := h.s.SaveDeviceToken(c.Context(), userID, &req); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.MessageResponse{Message: "device token saved"})
}
