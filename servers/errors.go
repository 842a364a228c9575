package servers

import (
	"errors"
	"github.com/gofiber/fiber/v3"
	"github.com/skif48/speakup-progress/entities"
	"log/slog"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, entities.ErrInvalidInput),
		errors.Is(err, entities.ErrUnknownActivity),
		errors.Is(err, entities.ErrInvalidReferralCode):
		return fiber.StatusBadRequest
	case errors.Is(err, entities.ErrCooldown):
		return fiber.StatusTooManyRequests
	case errors.Is(err, entities.ErrNotQualified),
		errors.Is(err, entities.ErrNoSkipPhrases):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, entities.ErrCodeTaken):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func respondError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path(), "method", c.Method())
		return c.Status(status).JSON(fiber.Map{"error": "could not complete the request"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
