package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CalFox/internal/pkg/database"
	"github.com/ManuelReschke/CalFox/internal/pkg/jobqueue"
	metrics "github.com/ManuelReschke/CalFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/CalFox/internal/pkg/scheduling"
)

// HandleSchedulingWebhook ingests appointment lifecycle events from the
// scheduling provider. Acknowledgment policy: only a failed signature check
// returns 401 and only a missing secret returns 500. Every other outcome,
// including internal failures, is acknowledged with 200 so the provider does
// not amplify a processing bug into a redelivery storm. Failures stay visible
// through the stored event row and the logs, not through the status code.
func HandleSchedulingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	receivedAt := time.Now()

	cfg, err := scheduling.LoadConfig()
	if err != nil {
		// Without a secret nothing can be verified. Refusing with a 5xx keeps
		// the provider retrying until the deployment is fixed.
		log.Errorf("[Webhook] Scheduling webhook misconfigured: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Service misconfigured"})
	}

	signatureHeader := c.Get(cfg.SignatureHeader)
	if err := scheduling.VerifyWebhookSignature(rawBody, signatureHeader, cfg.WebhookSecrets, cfg.ReplayWindow, receivedAt); err != nil {
		log.Warnf("[Webhook] Rejected scheduling webhook from %s: %v", clientIPForLog(c), err)
		_ = metrics.AddWebhookMetric(metrics.MetricUnauthorized)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	effects := jobqueue.NewQueueSideEffects(jobqueue.GetManager().GetQueue())
	svc := scheduling.NewServiceFromDB(cfg, database.GetDB(), effects)

	ev, err := scheduling.ParseInboundEvent(rawBody, receivedAt)
	if err != nil {
		if errors.Is(err, scheduling.ErrUnknownEventType) {
			// Unrecognized event types are expected as the provider grows its
			// catalog. Ack without storing a dedup row.
			log.Infof("[Webhook] Ignoring scheduling event: %v", err)
			_ = metrics.AddWebhookMetric(metrics.MetricIgnored)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
		}
		log.Errorf("[Webhook] Malformed scheduling payload: %v", err)
		_ = metrics.AddWebhookMetric(metrics.MetricFailed)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	created, stored, err := svc.RecordInboundEvent(ctx, ev, true)
	if err != nil {
		log.Errorf("[Webhook] Failed to persist scheduling event %s: %v", ev.EventID, err)
		_ = metrics.AddWebhookMetric(metrics.MetricFailed)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}
	if !created {
		log.Infof("[Webhook] Duplicate scheduling event %s (%s), skipping", ev.EventID, ev.Type)
		_ = metrics.AddWebhookMetric(metrics.MetricDuplicate)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	applyErr := svc.Apply(ctx, ev)
	if markErr := svc.MarkProcessed(ctx, stored.ID, applyErr); markErr != nil {
		log.Errorf("[Webhook] Failed to mark scheduling event %d processed: %v", stored.ID, markErr)
	}
	if applyErr != nil {
		log.Errorf("[Webhook] Processing scheduling event %s (%s) failed: %v", ev.EventID, ev.Type, applyErr)
		_ = metrics.AddWebhookMetric(metrics.MetricFailed)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	svc.ArchivePayload(stored.ID)
	_ = metrics.AddWebhookMetric(metrics.MetricReceived)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
