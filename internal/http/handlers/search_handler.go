package handlers

import (
	"strings"

	"stockfinder/internal/log"
	"stockfinder/internal/services"
	"stockfinder/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Lookup *services.LookupService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return badRequest(c, "q", "Invalid query")
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		return badRequest(c, "q", "Invalid query")
	}

	ans, err := h.Lookup.SearchProducts(c.UserContext(), q)
	if ans.DelegateErr != nil {
		log.Warn(c, "search.delegate.fallback", ans.DelegateErr, nil)
	}
	if err != nil {
		return fail(c, "search.error", err)
	}
	cacheFor(c, searchMaxAge)
	return c.JSON(fiber.Map{"items": ans.Items, "count": len(ans.Items), "source": ans.Source})
}
