package marker

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Marker
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Lat == 0 && req.Lng == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		req.UserID = userID(c)
		m, err := svc.CreateMarker(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	})

	r.Get("/mine", authMiddleware, func(c *fiber.Ctx) error {
		markers, err := svc.ListByOwner(c.Context(), userID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(markers)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, _ := strconv.ParseFloat(c.Query("lat"), 64)
		lng, _ := strconv.ParseFloat(c.Query("lng"), 64)
		radius, _ := strconv.ParseFloat(c.Query("radius_km"), 64)
		if radius == 0 {
			radius = 5
		}
		markers, err := svc.Nearby(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(markers)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		m, err := svc.GetMarker(c.Context(), c.Params("id"), userID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "marker not found")
		}
		return c.JSON(m)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Marker
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if strings.TrimSpace(req.Title) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title required")
		}
		m, err := svc.UpdateMarker(c.Context(), c.Params("id"), userID(c), req)
		if err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusForbidden, "only the owner can edit a marker")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(m)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		m, err := svc.GetMarker(c.Context(), c.Params("id"), userID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "marker not found")
		}
		if m.UserID != userID(c) {
			return fiber.NewError(fiber.StatusForbidden, "only the owner can delete a marker")
		}
		if err := svc.DeleteMarker(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/photos", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			PhotoURL string `json:"photo_url"`
			Caption  string `json:"caption"`
		}
		if err := c.BodyParser(&body); err != nil || body.PhotoURL == "" {
			return fiber.NewError(fiber.StatusBadRequest, "photo_url required")
		}
		photo, err := svc.AddPhoto(c.Context(), c.Params("id"), userID(c), body.PhotoURL, body.Caption)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Get("/:id/photos", func(c *fiber.Ctx) error {
		photos, err := svc.Photos(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(photos)
	})

	r.Delete("/:id/photos/:photoID", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeletePhoto(c.Context(), c.Params("id"), c.Params("photoID"), userID(c)); err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusForbidden, "only the uploader can delete a photo")
			}
			return fiber.NewError(fiber.StatusNotFound, "photo not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
