package user

import (
	"errors"

	"github.com/prateekbalawat/devconnect-backend/internal/post"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, posts *post.Service, authMiddleware fiber.Handler) {
	r.Get("/:email", func(c *fiber.Ctx) error {
		profile, err := svc.Get(c.Context(), c.Params("email"))
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(profile)
	})

	r.Get("/:email/posts", func(c *fiber.Ctx) error {
		profile, err := svc.Get(c.Context(), c.Params("email"))
		if err != nil {
			return errorStatus(err)
		}
		authored, err := posts.ByAuthor(c.Context(), profile.Email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"user": profile, "posts": authored})
	})

	r.Put("/:email/follow", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserEmail string `json:"user_email"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserEmail == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_email required")
		}
		if err := svc.Follow(c.Context(), body.UserEmail, c.Params("email")); err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"message": "followed successfully"})
	})

	r.Put("/:email/unfollow", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserEmail string `json:"user_email"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserEmail == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_email required")
		}
		if err := svc.Unfollow(c.Context(), body.UserEmail, c.Params("email")); err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"message": "unfollowed successfully"})
	})

	r.Get("/:email/followers", func(c *fiber.Ctx) error {
		followers, err := svc.Followers(c.Context(), c.Params("email"))
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"count": len(followers), "followers": followers})
	})

	r.Get("/:email/following", func(c *fiber.Ctx) error {
		following, err := svc.Following(c.Context(), c.Params("email"))
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"count": len(following), "following": following})
	})
}

func errorStatus(err error) *fiber.Error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrSelfFollow):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
