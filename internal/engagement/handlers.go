package engagement

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/markers/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Liked    bool   `json:"liked"`
			UserName string `json:"user_name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.ToggleLike(c.Context(), c.Params("id"), userID(c), body.UserName, body.Liked)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(result)
	})

	r.Post("/markers/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Text     string `json:"text"`
			UserName string `json:"user_name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		comment, err := svc.AddComment(c.Context(), c.Params("id"), userID(c), body.UserName, body.Text)
		if err != nil {
			if errors.Is(err, ErrEmptyComment) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Get("/markers/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.Comments(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(comments)
	})

	r.Delete("/markers/:id/comments/:commentID", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteComment(c.Context(), c.Params("id"), c.Params("commentID"), userID(c)); err != nil {
			if errors.Is(err, ErrNotAuthor) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/markers/:id/likes", func(c *fiber.Ctx) error {
		likes, err := svc.Likes(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(likes)
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
