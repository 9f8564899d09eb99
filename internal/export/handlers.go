package export

import (
	"errors"

	"backend-ridetracker/internal/ride"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, store *ride.Store) {
	r.Get("/:id/export.fit", func(c *fiber.Ctx) error {
		rd, err := store.GetRideByID(c.Context(), c.Params("id"))
		if errors.Is(err, ride.ErrRideNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if rd.EndTime == nil {
			return fiber.NewError(fiber.StatusConflict, "ride still in progress")
		}

		points, err := store.TrackPointsForRide(c.Context(), rd.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		data, err := BuildFIT(rd, points)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		c.Set(fiber.HeaderContentType, "application/vnd.ant.fit")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+Filename(rd)+`"`)
		return c.Send(data)
	})
}
