package handlers

import (
	"stockfinder/internal/services"
	"stockfinder/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.error", err)
	}
	cacheFor(c, defaultMaxAge)
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *CategoryHandler) WithImages(c *fiber.Ctx) error {
	cats, err := h.Catalog.CategoriesWithImages(c.UserContext())
	if err != nil {
		return fail(c, "categories.images.error", err)
	}
	cacheFor(c, defaultMaxAge)
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	category, ok := validate.Category(c.Query("category"))
	if !ok {
		return badRequest(c, "category", "Category parameter required")
	}
	items, err := h.Catalog.ListProductsByCategory(c.UserContext(), category)
	if err != nil {
		return fail(c, "category.products.error", err)
	}
	cacheFor(c, defaultMaxAge)
	return c.JSON(fiber.Map{"items": items, "count": len(items), "category": category})
}

func (h *CategoryHandler) BrandLogos(c *fiber.Ctx) error {
	logos, err := h.Catalog.BrandLogos(c.UserContext())
	if err != nil {
		return fail(c, "brandlogos.error", err)
	}
	cacheFor(c, defaultMaxAge)
	return c.JSON(fiber.Map{"brandLogos": logos})
}
