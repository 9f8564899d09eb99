package ride

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, rec *Recorder, store *Store, authMiddleware fiber.Handler) {
	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ride, err := rec.Start(c.Context(), req.Name)
		if errors.Is(err, ErrAlreadyRecording) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(ride)
	})

	r.Post("/pause", authMiddleware, func(c *fiber.Ctx) error {
		state, err := rec.Pause(c.Context())
		return stateResponse(c, state, err)
	})

	r.Post("/resume", authMiddleware, func(c *fiber.Ctx) error {
		state, err := rec.Resume(c.Context())
		return stateResponse(c, state, err)
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		state, err := rec.Stop(c.Context())
		return stateResponse(c, state, err)
	})

	r.Post("/finish", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			RideID string `json:"ride_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.RideID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "ride_id required")
		}
		result, err := rec.Finish(c.Context(), req.RideID)
		if errors.Is(err, ErrAlreadyRecording) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(result)
	})

	r.Post("/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var fix Fix
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		accepted, err := rec.Ingest(c.Context(), fix)
		if errors.Is(err, ErrNotRecording) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": accepted})
	})

	r.Post("/permission-lost", authMiddleware, func(c *fiber.Ctx) error {
		if err := rec.PermissionLost(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(rec.State())
	})

	r.Get("/state", func(c *fiber.Ctx) error {
		return c.JSON(rec.State())
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(rec.Snapshot())
	})

	r.Get("/:id/points", func(c *fiber.Ctx) error {
		points, err := store.TrackPointsForRide(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(points)
	})
}

func stateResponse(c *fiber.Ctx, state RecordingState, err error) error {
	if errors.Is(err, ErrNotRecording) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(state)
}
