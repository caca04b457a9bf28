package profile

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return c.JSON(p)
	})

	r.Put("/me", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			FullName  string `json:"full_name"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		id, _ := c.Locals("user_id").(string)

		if body.FullName != "" {
			if err := svc.UpdateDisplayName(c.Context(), id, body.FullName); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		if body.AvatarURL != "" {
			if err := svc.UpdateAvatar(c.Context(), id, body.AvatarURL); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}

		p, err := svc.Get(c.Context(), id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(p)
	})
}
