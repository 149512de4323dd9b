package post

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		posts, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Get("/following/:email", func(c *fiber.Ctx) error {
		posts, err := svc.FollowingFeed(c.Context(), c.Params("email"))
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"posts": posts})
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Post
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.AuthorEmail == "" || req.AuthorName == "" || req.Title == "" || req.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "author_email, author_name, title and content required")
		}
		created, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": created})
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Post
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := svc.Update(c.Context(), c.Params("id"), req.Title, req.Content)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"message": "post deleted"})
	})

	r.Put("/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserEmail string `json:"user_email"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserEmail == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_email required")
		}
		updated, err := svc.ToggleLike(c.Context(), c.Params("id"), body.UserEmail)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})

	r.Post("/:id/comment", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserEmail string `json:"user_email"`
			Content   string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserEmail == "" || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_email and content required")
		}
		updated, err := svc.AddComment(c.Context(), c.Params("id"), body.UserEmail, body.Content)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})

	r.Put("/:id/comment/:commentIndex", authMiddleware, func(c *fiber.Ctx) error {
		idx, ok := indexParam(c, "commentIndex")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrCommentNotFound.Error())
		}
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}
		updated, err := svc.UpdateComment(c.Context(), c.Params("id"), idx, body.Content)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})

	r.Delete("/:id/comment/:commentIndex", authMiddleware, func(c *fiber.Ctx) error {
		idx, ok := indexParam(c, "commentIndex")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrCommentNotFound.Error())
		}
		updated, err := svc.DeleteComment(c.Context(), c.Params("id"), idx)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})

	r.Post("/:id/comment/:commentIndex/reply", authMiddleware, func(c *fiber.Ctx) error {
		idx, ok := indexParam(c, "commentIndex")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrCommentNotFound.Error())
		}
		var body struct {
			UserEmail string `json:"user_email"`
			Content   string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserEmail == "" || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_email and content required")
		}
		updated, err := svc.AddReply(c.Context(), c.Params("id"), idx, body.UserEmail, body.Content)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})

	r.Put("/:id/comment/:commentIndex/reply/:replyIndex", authMiddleware, func(c *fiber.Ctx) error {
		cIdx, ok := indexParam(c, "commentIndex")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrCommentNotFound.Error())
		}
		rIdx, ok := indexParam(c, "replyIndex")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrReplyNotFound.Error())
		}
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil || body.Content == "" {
			return fiber.NewError(fiber.StatusBadRequest, "content required")
		}
		updated, err := svc.UpdateReply(c.Context(), c.Params("id"), cIdx, rIdx, body.Content)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})

	r.Delete("/:id/comment/:commentIndex/reply/:replyIndex", authMiddleware, func(c *fiber.Ctx) error {
		cIdx, ok := indexParam(c, "commentIndex")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrCommentNotFound.Error())
		}
		rIdx, ok := indexParam(c, "replyIndex")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrReplyNotFound.Error())
		}
		updated, err := svc.DeleteReply(c.Context(), c.Params("id"), cIdx, rIdx)
		if err != nil {
			return errorStatus(err)
		}
		return c.JSON(fiber.Map{"post": updated})
	})
}

// A non-numeric index never addresses anything, so it reads as not found
// rather than bad input.
func indexParam(c *fiber.Ctx, name string) (int, bool) {
	idx, err := strconv.Atoi(c.Params(name))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func errorStatus(err error) *fiber.Error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCommentNotFound),
		errors.Is(err, ErrReplyNotFound),
		errors.Is(err, ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
