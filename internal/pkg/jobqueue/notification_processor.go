package jobqueue

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/CalFox/app/models"
	"github.com/ManuelReschke/CalFox/internal/pkg/database"
	"github.com/ManuelReschke/CalFox/internal/pkg/mail"
	"github.com/gofiber/fiber/v2/log"
)

// processNotificationSendJob delivers one queued notification via SMTP. The
// webhook handler never waits for this; delivery state lives on the
// notification row.
func (q *Queue) processNotificationSendJob(ctx context.Context, job *Job) error {
	_ = ctx
	payload, err := NotificationSendJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid notification job payload: %w", err)
	}

	db := database.GetDB()
	var notification models.Notification
	if err := db.First(&notification, payload.NotificationID).Error; err != nil {
		return fmt.Errorf("notification %d not found: %w", payload.NotificationID, err)
	}

	if notification.Status == models.NotificationStatusSent {
		// Job was re-delivered after a crash; nothing to do
		log.Infof("[JobQueue] Notification %d already sent, skipping", notification.ID)
		return nil
	}

	if err := mail.SendMail(notification.Recipient, notification.Subject, notification.Body); err != nil {
		if markErr := notification.MarkAsFailed(db, err.Error()); markErr != nil {
			log.Errorf("[JobQueue] Failed to mark notification %d as failed: %v", notification.ID, markErr)
		}
		return fmt.Errorf("send notification %d: %w", notification.ID, err)
	}

	return notification.MarkAsSent(db)
}
