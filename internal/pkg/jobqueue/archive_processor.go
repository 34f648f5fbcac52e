package jobqueue

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/CalFox/app/models"
	"github.com/ManuelReschke/CalFox/internal/pkg/database"
	"github.com/ManuelReschke/CalFox/internal/pkg/s3archive"
	"github.com/gofiber/fiber/v2/log"
)

// processPayloadArchiveJob copies the stored raw payload of a processed
// webhook event into the S3 audit bucket. A disabled archive is a silent
// no-op so the queue works in environments without object storage.
func (q *Queue) processPayloadArchiveJob(ctx context.Context, job *Job) error {
	payload, err := PayloadArchiveJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid archive job payload: %w", err)
	}

	cfg, err := s3archive.LoadConfig()
	if err != nil {
		return err
	}
	if !cfg.IsEnabled() {
		log.Debugf("[JobQueue] S3 archive disabled, dropping archive job for event %d", payload.WebhookEventID)
		return nil
	}

	db := database.GetDB()
	var event models.SchedulingWebhookEvent
	if err := db.First(&event, payload.WebhookEventID).Error; err != nil {
		return fmt.Errorf("webhook event %d not found: %w", payload.WebhookEventID, err)
	}

	client, err := s3archive.NewClient(cfg)
	if err != nil {
		return err
	}

	objectKey := fmt.Sprintf("webhooks/%s/%s_%s.json",
		event.ReceivedAt.UTC().Format("2006-01-02"),
		event.EventType,
		event.ProviderEventID,
	)
	return client.UploadPayload(ctx, objectKey, []byte(event.PayloadJSON))
}
