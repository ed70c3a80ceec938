package handlers

import (
	"stockfinder/internal/log"
	"stockfinder/internal/mcp"

	"github.com/gofiber/fiber/v2"
)

type MCPHandler struct {
	Server *mcp.Server
}

// Handle serves JSON-RPC over POST. Protocol errors travel in the response body.
func (h *MCPHandler) Handle(c *fiber.Ctx) error {
	resp := h.Server.Handle(c.UserContext(), c.Body())
	if resp.Error != nil {
		fields := map[string]any{"code": resp.Error.Code}
		if resp.Error.Code == mcp.CodeInternal {
			log.Error(c, "mcp.error", resp.Cause, fields)
		} else {
			log.Info(c, "mcp.reject", fields)
		}
	}
	return c.JSON(resp)
}
