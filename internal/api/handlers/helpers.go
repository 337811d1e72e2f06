package handlers

import (
	"errors"
	"strconv"

	"github.com/feedmerge/server/internal/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

func parseAndValidate(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.New(apperror.Validation, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return apperror.Wrap(apperror.Validation, "validation failed", err)
	}
	return nil
}

// respondError maps service errors onto HTTP statuses. Unclassified errors
// stay opaque to the client.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return c.Status(statusFor(appErr.Kind)).JSON(fiber.Map{
			"error": appErr.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.Validation:
		return fiber.StatusBadRequest
	case apperror.Auth:
		return fiber.StatusUnauthorized
	case apperror.Permission:
		return fiber.StatusForbidden
	case apperror.NotFound:
		return fiber.StatusNotFound
	case apperror.Conflict:
		return fiber.StatusConflict
	case apperror.External:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
