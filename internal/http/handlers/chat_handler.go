package handlers

import (
	"stockfinder/internal/log"
	"stockfinder/internal/services"
	"stockfinder/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	Chat *services.ChatService
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "Invalid request body")
	}
	msg, ok := validate.ChatMessage(req.Message)
	if !ok {
		return badRequest(c, "message", "message is required")
	}
	sid, ok := validate.SessionID(req.SessionID)
	if !ok {
		return badRequest(c, "sessionId", "Invalid sessionId")
	}
	reply, err := h.Chat.Send(c.UserContext(), msg, sid)
	if err != nil {
		return fail(c, "chat.error", err)
	}
	log.Audit(c, "chat.relay", map[string]any{"session_id": reply["sessionId"]})
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(reply)
}
