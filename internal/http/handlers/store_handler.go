package handlers

import (
	"stockfinder/internal/log"
	"stockfinder/internal/services"
	"stockfinder/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type StoreHandler struct {
	Lookup *services.LookupService
}

// Nearest answers GET /api/nearestStore?lat=&lng=&productId=&inStock=
func (h *StoreHandler) Nearest(c *fiber.Ctx) error {
	lat, lng, ok := validate.Coordinate(c.Query("lat"), c.Query("lng"))
	if !ok {
		return badRequest(c, "lat/lng", "lat and lng must be valid coordinates")
	}
	pid, ok := validate.ProductID(c.Query("productId"))
	if !ok {
		return badRequest(c, "productId", "productId must be a positive integer")
	}
	inStock, ok := validate.Flag(c.Query("inStock"))
	if !ok {
		return badRequest(c, "inStock", "inStock must be true or false")
	}

	ans, err := h.Lookup.NearestStores(c.UserContext(), services.RankQuery{
		Lat: lat, Lng: lng, ProductID: pid, InStockOnly: inStock,
	})
	if ans.DelegateErr != nil {
		log.Warn(c, "nearest.delegate.fallback", ans.DelegateErr, nil)
	}
	if err != nil {
		return fail(c, "nearest.error", err)
	}
	cacheFor(c, defaultMaxAge)
	return c.JSON(fiber.Map{"items": ans.Items, "source": ans.Source})
}
