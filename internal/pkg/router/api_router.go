package router

import (
	"github.com/ManuelReschke/CalFox/app/controllers"
	"github.com/ManuelReschke/CalFox/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes (admin reconciliation surface, API key protected)
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	v1.Get("/appointments", controllers.HandleListAppointments)
	v1.Get("/appointments/:uuid", controllers.HandleGetAppointment)
	v1.Get("/webhook-events", controllers.HandleListWebhookEvents)
	v1.Post("/webhook-events/:id/retry", controllers.HandleRetryWebhookEvent)
	v1.Get("/webhook-stats", controllers.HandleWebhookStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
