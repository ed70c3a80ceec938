package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"stockfinder/internal/log"
	"stockfinder/internal/services"
)

const (
	searchMaxAge  = 30
	defaultMaxAge = 60
)

func cacheFor(c *fiber.Ctx, sMaxAge int) {
	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=300", sMaxAge))
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	log.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// fail turns a service error into a response. Collaborator failures become a generic
// 503; the cause is only logged. Anything else goes to the app ErrorHandler.
func fail(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, services.ErrDataUnavailable) || errors.Is(err, services.ErrChatUnavailable) {
		log.Error(c, action, err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service unavailable"})
	}
	return err
}

// ErrorHandler answers unhandled errors with a JSON body that never carries internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := "internal error"
	if code < fiber.StatusInternalServerError {
		msg = fe.Message
	} else {
		log.Error(c, "server.error", err, nil)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
