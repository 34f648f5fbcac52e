package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CalFox/internal/pkg/cache"
	"github.com/ManuelReschke/CalFox/internal/pkg/database"
)

// HandleHealth reports liveness of the service and its backing stores.
// Degraded dependencies flip the status but the endpoint itself stays 200 so
// load balancers can distinguish "down" from "unhealthy".
func HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if sqlDB, err := database.GetDB().DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unreachable"
	}

	cacheStatus := "ok"
	if err := cache.GetClient().Ping(ctx).Err(); err != nil {
		cacheStatus = "unreachable"
	}

	status := "ok"
	if dbStatus != "ok" || cacheStatus != "ok" {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
		"cache":    cacheStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
