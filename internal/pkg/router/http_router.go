package router

import (
	"github.com/ManuelReschke/CalFox/app/controllers"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// The webhook endpoint stays outside the rate limiter: the provider
	// controls delivery pacing and a throttled 429 would look like an outage
	// and trigger redelivery.
	app.Post("/webhooks/scheduling", controllers.HandleSchedulingWebhook)

	app.Get("/health", controllers.HandleHealth)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
