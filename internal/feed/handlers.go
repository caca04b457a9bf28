package feed

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
		lng, _ := strconv.ParseFloat(c.Query("lng"), 64)

		items, err := svc.Refresh(c.Context(), userID(c), lat, lng)
		if err != nil {
			log.Printf("feed refresh for %s: %v", userID(c), err)
			return fiber.NewError(fiber.StatusInternalServerError, "feed could not be loaded")
		}
		return c.JSON(items)
	})

	r.Get("/snapshot", authMiddleware, func(c *fiber.Ctx) error {
		snap, ok := svc.LastSnapshot(userID(c))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no feed snapshot yet")
		}
		return c.JSON(snap)
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
