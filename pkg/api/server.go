// Package api is the read-only query surface over the event store.
package api

import (
	"fmt"

	"github.com/hfplog/hfplog/pkg/config"
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func SetupServer(s *store.Store, cfg *config.Config) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	localizer := Localizer{Available: []string{"en", "fi"}}

	webApp.Use(NewLogger())
	webApp.Use(cors.New())
	webApp.Use(limiter.New(limiter.Config{
		Max:          cfg.RateLimitMax,
		Expiration:   cfg.RateLimitPeriod,
		LimitReached: rateLimited(localizer, cfg),
	}))

	webApp.Get("/", describeService(localizer))
	webApp.Get("/version", APIVersion)

	webApp.Get("/trips/", listTrips(s))
	webApp.Get("/stats/", listStopEvents(s))
	webApp.Get("/trip_events/", listTripEvents(s))
	webApp.Get("/tl_events/", listPriorityEvents(s))
	webApp.Get("/door_events/", listDoorEvents(s))
	webApp.Get("/counters/", listCounters(s))

	return webApp
}

func rateLimited(localizer Localizer, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Status(fiber.StatusTooManyRequests)

		lang := c.Query("lang")
		if !localizer.supported(lang) {
			lang = ""
		}

		return c.JSON(localizedResponse{
			Errors: []Text{localizer.Pick(lang, Text{
				"en": fmt.Sprintf("Too many requests. Max (%d requests per %s)", cfg.RateLimitMax, cfg.RateLimitPeriod),
				"fi": fmt.Sprintf("Pyyntöraja ylitetty. Max (%d pyyntöä / %s)", cfg.RateLimitMax, cfg.RateLimitPeriod),
			})},
		})
	}
}
