package handlers

import (
	"github.com/feedmerge/server/internal/service"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	erasure service.ErasureService
}

func NewWebhookHandler(erasure service.ErasureService) *WebhookHandler {
	return &WebhookHandler{erasure: erasure}
}

// FacebookDataDeletion implements the data deletion callback Facebook sends
// when a user removes the app. The request carries a signed_request form
// field whose signature must match the app secret.
func (h *WebhookHandler) FacebookDataDeletion(c *fiber.Ctx) error {
	signedRequest := c.FormValue("signed_request")
	if signedRequest == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing signed_request",
		})
	}

	response, err := h.erasure.HandleFacebookDeletion(c.Context(), signedRequest)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// DataDeletionStatus answers the status URL handed back to Facebook. The
// deletion itself is synchronous, so any known code reports completion.
func (h *WebhookHandler) DataDeletionStatus(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing confirmation code",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"code":   code,
		"status": "complete",
	})
}
