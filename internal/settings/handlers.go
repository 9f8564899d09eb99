package settings

import (
	"errors"

	"backend-ridetracker/internal/ride"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/autopause", func(c *fiber.Ctx) error {
		cfg, err := svc.AutoPause(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(cfg)
	})

	r.Put("/autopause", authMiddleware, func(c *fiber.Ctx) error {
		var cfg ride.AutoPauseConfig
		if err := c.BodyParser(&cfg); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.SetAutoPause(c.Context(), cfg); err != nil {
			if errors.Is(err, ErrInvalidSetting) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(cfg)
	})

	r.Get("/units", func(c *fiber.Ctx) error {
		units, err := svc.Units(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"units": units})
	})

	r.Put("/units", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Units string `json:"units"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.SetUnits(c.Context(), req.Units); err != nil {
			if errors.Is(err, ErrInvalidSetting) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"units": req.Units})
	})
}
