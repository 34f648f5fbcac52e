package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/CalFox/app/repository"
	"github.com/ManuelReschke/CalFox/internal/pkg/cache"
	"github.com/ManuelReschke/CalFox/internal/pkg/database"
	"github.com/ManuelReschke/CalFox/internal/pkg/env"
	"github.com/ManuelReschke/CalFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CalFox/internal/pkg/router"
	"github.com/ManuelReschke/CalFox/internal/pkg/scheduling"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	// A service that cannot verify webhook signatures must not come up at
	// all; every accepted event would be unauthenticated.
	if _, err := scheduling.LoadConfig(); err != nil {
		log.Fatalf("scheduling configuration invalid: %v", err)
	}

	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// background workers: notification delivery, payload archive, counter flush
	jobqueue.GetManager().Start()

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1048576, // 1 MiB, webhook payloads are small
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
