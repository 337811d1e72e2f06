package handlers

import (
	"github.com/feedmerge/server/internal/service"
	"github.com/feedmerge/server/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type ConnectionHandler struct {
	s service.ConnectionService
}

func NewConnectionHandler(s service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{s: s}
}

func (h *ConnectionHandler) StartOAuth(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.OAuthStartRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.s.StartOAuth(c.Context(), userID, req.Platform)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *ConnectionHandler) ExchangeOAuth(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.OAuthExchangeRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	response, err := h.s.CompleteOAuth(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *ConnectionHandler) ListConnections(c *fiber.Ctx) error {
	userID := GetUserID(c)

	connections, err := h.s.List(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(connections)
}

func (h *ConnectionHandler) Disconnect(c *fiber.Ctx) error {
	userID := GetUserID(c)

	connectionID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid connection id",
		})
	}

	if err := h.s.Disconnect(c.Context(), userID, int64(connectionID)); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
