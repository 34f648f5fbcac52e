package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CalFox/app/models"
	"github.com/ManuelReschke/CalFox/app/repository"
	"github.com/ManuelReschke/CalFox/internal/pkg/database"
	"github.com/ManuelReschke/CalFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CalFox/internal/pkg/scheduling"
)

// HandleListWebhookEvents returns stored webhook events for reconciliation.
// Supports ?outcome=succeeded|failed and ?page/?limit.
func HandleListWebhookEvents(c *fiber.Ctx) error {
	offset, limit := paginationParams(c)
	repo := repository.GetGlobalFactory().GetWebhookEventRepository()

	outcome := c.Query("outcome")
	var (
		events []models.SchedulingWebhookEvent
		err    error
	)
	if outcome != "" {
		events, err = repo.ListByOutcome(outcome, offset, limit)
	} else {
		events, err = repo.List(offset, limit)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook events"})
	}

	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count webhook events"})
	}

	items := make([]fiber.Map, 0, len(events))
	for _, event := range events {
		items = append(items, fiber.Map{
			"id":                  event.ID,
			"provider_event_id":   event.ProviderEventID,
			"event_type":          event.EventType,
			"provider_invitee_id": event.ProviderInviteeID,
			"signature_valid":     event.SignatureValid,
			"received_at":         event.ReceivedAt.UTC().Format(time.RFC3339),
			"processed_at":        formatTimePtr(event.ProcessedAt),
			"outcome":             event.Outcome,
			"processing_error":    event.ProcessingError,
		})
	}

	return c.JSON(fiber.Map{
		"events": items,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

// HandleWebhookStats returns the per-day webhook counters for a date range,
// defaulting to the last 7 days.
func HandleWebhookStats(c *fiber.Ctx) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -6)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "from must be YYYY-MM-DD"})
		}
		start = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "to must be YYYY-MM-DD"})
		}
		end = parsed
	}

	repo := repository.GetGlobalFactory().GetWebhookEventRepository()
	stats, err := repo.GetDailyStats(start, end)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook stats"})
	}

	items := make([]fiber.Map, 0, len(stats))
	for _, stat := range stats {
		items = append(items, fiber.Map{
			"date":   stat.Date,
			"metric": stat.Metric,
			"count":  stat.Count,
		})
	}
	return c.JSON(fiber.Map{"stats": items})
}

// HandleRetryWebhookEvent re-applies the stored payload of a failed event.
// The transition handlers read current state before writing, so re-applying
// after a transient failure converges to the same result as first delivery.
func HandleRetryWebhookEvent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid event id"})
	}

	repo := repository.GetGlobalFactory().GetWebhookEventRepository()
	event, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Webhook event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook event"})
	}
	if event.Outcome != models.WebhookOutcomeFailed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Only failed events can be retried"})
	}

	cfg, err := scheduling.LoadConfig()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Scheduling service misconfigured"})
	}

	ev, err := scheduling.ParseInboundEvent([]byte(event.PayloadJSON), event.ReceivedAt)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unprocessable", "message": "Stored payload cannot be parsed"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	effects := jobqueue.NewQueueSideEffects(jobqueue.GetManager().GetQueue())
	svc := scheduling.NewServiceFromDB(cfg, database.GetDB(), effects)

	applyErr := svc.Apply(ctx, ev)
	if markErr := svc.MarkProcessed(ctx, event.ID, applyErr); markErr != nil {
		log.Errorf("[AdminAPI] Failed to mark retried event %d: %v", event.ID, markErr)
	}
	if applyErr != nil {
		return c.JSON(fiber.Map{"retried": true, "outcome": models.WebhookOutcomeFailed, "error": applyErr.Error()})
	}
	return c.JSON(fiber.Map{"retried": true, "outcome": models.WebhookOutcomeSucceeded})
}
