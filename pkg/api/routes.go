package api

import (
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/gofiber/fiber/v2"
)

func APIVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": "v0.1",
	})
}

func describeService(localizer Localizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return localizer.Respond(c, map[string]Text{
			"description": {
				"en": "HSL vehicle event log API",
				"fi": "HSL ajoneuvotapahtumien API",
			},
		})
	}
}

func listTrips(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trips, err := s.Trips()
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(trips)
	}
}

func listTripEvents(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		events, err := s.TripEvents()
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(events)
	}
}

// listStopEvents serves the trip events that happened at a known stop.
func listStopEvents(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		events, err := s.StopEvents()
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(events)
	}
}

func listPriorityEvents(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		events, err := s.PriorityEvents()
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(events)
	}
}

func listDoorEvents(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		events, err := s.DoorEvents()
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(events)
	}
}

func listCounters(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counters, err := s.Counters()
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(counters)
	}
}

func serverError(c *fiber.Ctx, err error) error {
	c.Status(fiber.StatusInternalServerError)
	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}
