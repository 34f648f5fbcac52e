package jobqueue

// QueueSideEffects bridges the scheduling service to the Redis job queue.
// Each method only enqueues; the workers do the actual sending and uploading
// so a webhook request never blocks on SMTP or S3.
type QueueSideEffects struct {
	queue *Queue
}

// NewQueueSideEffects wraps a queue for use by the scheduling service.
func NewQueueSideEffects(queue *Queue) *QueueSideEffects {
	return &QueueSideEffects{queue: queue}
}

func (s *QueueSideEffects) EnqueueNotification(notificationID uint) error {
	payload := NotificationSendJobPayload{NotificationID: notificationID}
	_, err := s.queue.EnqueueJob(JobTypeNotificationSend, payload.ToMap())
	return err
}

func (s *QueueSideEffects) EnqueuePayloadArchive(webhookEventID uint) error {
	payload := PayloadArchiveJobPayload{WebhookEventID: webhookEventID}
	_, err := s.queue.EnqueueJob(JobTypePayloadArchive, payload.ToMap())
	return err
}
