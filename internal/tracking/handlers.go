package tracking

import (
	"errors"

	"backend-everywhere/internal/auth"
	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		var req StartRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		session, err := svc.Start(c.UserContext(), userID, req)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		svc.Stop(userID)
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/fixes", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		var fixes []fix.Fix
		if err := c.BodyParser(&fixes); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		result, err := svc.Push(userID, fixes)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(result)
	})

	r.Delete("/history", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err := svc.Forget(c.UserContext(), userID); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		session, ok := svc.Status(userID)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, fix.ErrNotSubscribed.Error())
		}
		return c.JSON(session)
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, fix.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, fix.PermissionDeniedMessage)
	case errors.Is(err, ErrInvalidMode), errors.Is(err, fix.ErrInvalidFix):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, fix.ErrNotSubscribed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, place.ErrStorageUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
