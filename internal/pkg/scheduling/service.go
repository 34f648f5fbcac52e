package scheduling

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/CalFox/app/models"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// SideEffects dispatches the asynchronous follow-ups of a state transition.
// Everything behind this interface is fire-and-forget: results are logged by
// the job queue, never awaited by the webhook handler.
type SideEffects interface {
	EnqueueNotification(notificationID uint) error
	EnqueuePayloadArchive(webhookEventID uint) error
}

// Service applies appointment state transitions from inbound scheduling
// events. All coordination happens through the durable store; the service
// itself holds no mutable state and is safe for concurrent use.
type Service struct {
	cfg     Config
	repo    Repository
	effects SideEffects
	nowFn   func() time.Time
}

// NewService creates a scheduling service from an injected repository.
func NewService(cfg Config, repo Repository, effects SideEffects) *Service {
	return &Service{cfg: cfg, repo: repo, effects: effects, nowFn: time.Now}
}

// NewServiceFromDB creates a scheduling service from a GORM DB handle.
func NewServiceFromDB(cfg Config, db *gorm.DB, effects SideEffects) *Service {
	return NewService(cfg, NewRepository(db), effects)
}

// RecordInboundEvent persists the dedup row for an event, before any
// transition or side effect runs. Returns created=false when the (event id,
// event type) pair was already seen; the caller must then skip processing and
// acknowledge as if it had processed the event itself.
func (s *Service) RecordInboundEvent(ctx context.Context, ev *InboundEvent, signatureValid bool) (bool, *models.SchedulingWebhookEvent, error) {
	_ = ctx
	eventID := ev.EventID
	if eventID == "" {
		// Defensive fallback: a payload without an event uuid still gets a
		// stable dedup key derived from its content.
		sum := sha256.Sum256(ev.RawBody)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.SchedulingWebhookEvent{
		ProviderEventID:   eventID,
		EventType:         string(ev.Type),
		ProviderInviteeID: ev.InviteeID,
		PayloadJSON:       string(ev.RawBody),
		SignatureValid:    signatureValid,
		ReceivedAt:        ev.ReceivedAt,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkProcessed writes the processing outcome onto the stored event row.
func (s *Service) MarkProcessed(ctx context.Context, webhookEventID uint, applyErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	outcome := models.WebhookOutcomeSucceeded
	errMsg := ""
	if applyErr != nil {
		outcome = models.WebhookOutcomeFailed
		errMsg = applyErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, outcome, errMsg)
}

// Apply routes one deduplicated event to its state transition handler.
// Single execution is already guaranteed by the dedup layer; the handlers
// themselves only need to be correct, not re-entrant.
func (s *Service) Apply(ctx context.Context, ev *InboundEvent) error {
	switch ev.Type {
	case EventInviteeCreated:
		return s.applyInviteeCreated(ctx, ev)
	case EventInviteeCanceled:
		return s.applyInviteeCanceled(ctx, ev)
	case EventInviteeRescheduled:
		return s.applyInviteeRescheduled(ctx, ev)
	case EventNoShowCreated:
		return s.applyNoShowCreated(ctx, ev)
	case EventNoShowDeleted:
		return s.applyNoShowDeleted(ctx, ev)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
}

func (s *Service) applyInviteeCreated(ctx context.Context, ev *InboundEvent) error {
	_ = ctx
	client, err := s.repo.FindOrCreateClientByEmail(ev.Invitee.Email, ev.Invitee.Name)
	if err != nil {
		return fmt.Errorf("resolve client for invitee %s: %w", ev.InviteeID, err)
	}

	appointment := &models.Appointment{
		ClientID:          client.ID,
		ProviderEventID:   ev.EventID,
		ProviderInviteeID: ev.InviteeID,
		AppointmentType:   ev.Slot.AppointmentType,
		ScheduledStart:    ev.Slot.StartTime,
		ScheduledEnd:      ev.Slot.EndTime,
		Status:            models.AppointmentStatusScheduled,
		Location:          ev.Slot.Location,
		MetadataJSON:      ev.MetadataJSON(),
	}
	if err := s.repo.CreateAppointment(appointment); err != nil {
		return fmt.Errorf("create appointment for invitee %s: %w", ev.InviteeID, err)
	}

	// Side effects are best-effort from here on: the appointment row is
	// committed and a failed fee or notification must not undo that.
	s.createAuthorization(appointment.ID, s.cfg.AppointmentFeeCents, models.PaymentKindAppointmentFee)
	s.dispatchNotification(appointment, client.Email, models.NotificationKindConfirmation, false)
	return nil
}

func (s *Service) applyInviteeCanceled(ctx context.Context, ev *InboundEvent) error {
	_ = ctx
	appointment, err := s.lookupAppointment(ev)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":              models.AppointmentStatusCanceled,
		"cancellation_reason": ev.CancellationReason,
	}
	if err := s.repo.UpdateAppointment(appointment.ID, updates); err != nil {
		return fmt.Errorf("cancel appointment %d: %w", appointment.ID, err)
	}

	// Strictly less than the cutoff: a cancellation at exactly 24h incurs
	// no fee, one minute later it does.
	untilStart := appointment.ScheduledStart.Sub(s.nowFn())
	lateCancellation := untilStart < s.cfg.CancellationFeeCutoff
	if lateCancellation {
		s.createAuthorization(appointment.ID, s.cfg.CancellationFeeCents, models.PaymentKindCancellationFee)
	}
	s.dispatchNotification(appointment, s.recipientFor(ev, appointment), models.NotificationKindCancellation, lateCancellation)
	return nil
}

func (s *Service) applyInviteeRescheduled(ctx context.Context, ev *InboundEvent) error {
	_ = ctx
	appointment, err := s.lookupAppointment(ev)
	if err != nil {
		return err
	}

	// Reschedules only move the slot. Status is untouched and no fee logic
	// applies.
	updates := map[string]interface{}{
		"scheduled_start": ev.Slot.StartTime,
		"scheduled_end":   ev.Slot.EndTime,
	}
	if err := s.repo.UpdateAppointment(appointment.ID, updates); err != nil {
		return fmt.Errorf("reschedule appointment %d: %w", appointment.ID, err)
	}

	appointment.ScheduledStart = ev.Slot.StartTime
	appointment.ScheduledEnd = ev.Slot.EndTime
	s.dispatchNotification(appointment, s.recipientFor(ev, appointment), models.NotificationKindReschedule, false)
	return nil
}

func (s *Service) applyNoShowCreated(ctx context.Context, ev *InboundEvent) error {
	_ = ctx
	appointment, err := s.lookupAppointment(ev)
	if err != nil {
		return err
	}

	now := s.nowFn()
	updates := map[string]interface{}{
		"status":              models.AppointmentStatusNoShow,
		"no_show_recorded_at": &now,
	}
	if err := s.repo.UpdateAppointment(appointment.ID, updates); err != nil {
		return fmt.Errorf("mark appointment %d as no-show: %w", appointment.ID, err)
	}
	// TODO(billing): no-show fee assessment is a manual business decision for
	// now; see the admin reconciliation view for flagged no-shows.
	return nil
}

func (s *Service) applyNoShowDeleted(ctx context.Context, ev *InboundEvent) error {
	_ = ctx
	appointment, err := s.lookupAppointment(ev)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":              models.AppointmentStatusCompleted,
		"no_show_recorded_at": nil,
	}
	if err := s.repo.UpdateAppointment(appointment.ID, updates); err != nil {
		return fmt.Errorf("clear no-show on appointment %d: %w", appointment.ID, err)
	}
	return nil
}

// lookupAppointment resolves the target of an update-class event. A missing
// appointment is usually out-of-order delivery (the created event has not
// been processed yet) or data created outside this webhook; it is reported as
// ErrRecordNotFound, which the dispatcher logs and acknowledges.
func (s *Service) lookupAppointment(ev *InboundEvent) (*models.Appointment, error) {
	appointment, err := s.repo.GetAppointmentByInviteeID(ev.InviteeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invitee %s (event %s, type %s)", ErrRecordNotFound, ev.InviteeID, ev.EventID, ev.Type)
		}
		return nil, fmt.Errorf("lookup appointment for invitee %s: %w", ev.InviteeID, err)
	}
	return appointment, nil
}

// createAuthorization writes a pending payment authorization. Failures are
// logged and swallowed: a broken payment write must not suppress the
// notification nor fail the already-committed transition.
func (s *Service) createAuthorization(appointmentID uint, amountCents int64, kind string) {
	auth := &models.PaymentAuthorization{
		AppointmentID: appointmentID,
		AmountCents:   amountCents,
		Kind:          kind,
		Status:        models.PaymentStatusPending,
	}
	if err := s.repo.CreatePaymentAuthorization(auth); err != nil {
		log.Errorf("[Scheduling] Failed to create %s authorization for appointment %d: %v", kind, appointmentID, err)
	}
}

// dispatchNotification persists the outbound message and hands it to the job
// queue. Both steps are best-effort and independently logged.
func (s *Service) dispatchNotification(appointment *models.Appointment, recipient, kind string, feeApplied bool) {
	if recipient == "" {
		log.Warnf("[Scheduling] No recipient for %s notification on appointment %d, skipping", kind, appointment.ID)
		return
	}

	subject, body := renderNotification(appointment, kind, feeApplied, s.cfg.CancellationFeeCents)
	notification := &models.Notification{
		AppointmentID: appointment.ID,
		Kind:          kind,
		Recipient:     recipient,
		Subject:       subject,
		Body:          body,
		Status:        models.NotificationStatusPending,
	}
	if err := s.repo.CreateNotification(notification); err != nil {
		log.Errorf("[Scheduling] Failed to persist %s notification for appointment %d: %v", kind, appointment.ID, err)
		return
	}
	if s.effects == nil {
		return
	}
	if err := s.effects.EnqueueNotification(notification.ID); err != nil {
		log.Errorf("[Scheduling] Failed to enqueue %s notification %d: %v", kind, notification.ID, err)
	}
}

// ArchivePayload hands the stored raw payload to the async S3 archive job.
func (s *Service) ArchivePayload(webhookEventID uint) {
	if s.effects == nil || webhookEventID == 0 {
		return
	}
	if err := s.effects.EnqueuePayloadArchive(webhookEventID); err != nil {
		log.Errorf("[Scheduling] Failed to enqueue payload archive for event %d: %v", webhookEventID, err)
	}
}

// recipientFor prefers the invitee email on the event and falls back to the
// stored client when the provider omitted it on an update-class event.
func (s *Service) recipientFor(ev *InboundEvent, appointment *models.Appointment) string {
	if ev.Invitee.Email != "" {
		return ev.Invitee.Email
	}
	if appointment.Client.Email != "" {
		return appointment.Client.Email
	}
	client, err := s.repo.GetClientByID(appointment.ClientID)
	if err != nil {
		return ""
	}
	return client.Email
}
