package scheduling

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Parse errors. ErrUnknownEventType is acknowledged with 200 and dropped;
// ErrMalformedPayload is logged and acknowledged with 200 because a retry can
// never fix a permanently malformed payload.
var (
	ErrUnknownEventType  = errors.New("unknown webhook event type")
	ErrMalformedPayload  = errors.New("malformed webhook payload")
	ErrRecordNotFound    = errors.New("referenced appointment not found")
	ErrMissingEventField = errors.New("missing required event field")
)

// ParseInboundEvent decodes and validates a raw webhook body into its
// normalized form. Validation depends on the event type: the payload is a
// tagged union keyed by the "event" field, and each variant's required fields
// are checked here, before any side effect runs.
func ParseInboundEvent(rawBody []byte, receivedAt time.Time) (*InboundEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	eventName := strings.TrimSpace(envelope.Event)
	if eventName == "" {
		return nil, fmt.Errorf("%w: empty event field", ErrMalformedPayload)
	}

	eventType := EventType(eventName)
	if !eventType.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventName)
	}

	ev := &InboundEvent{
		Type:       eventType,
		EventID:    strings.TrimSpace(envelope.Payload.Event.UUID),
		InviteeID:  strings.TrimSpace(envelope.Payload.Invitee.UUID),
		OccurredAt: envelope.Time,
		ReceivedAt: receivedAt,
		RawBody:    rawBody,
		Invitee: InviteeDetail{
			Email:               strings.TrimSpace(envelope.Payload.Invitee.Email),
			Name:                strings.TrimSpace(envelope.Payload.Invitee.Name),
			CancelURL:           envelope.Payload.Invitee.CancelURL,
			RescheduleURL:       envelope.Payload.Invitee.RescheduleURL,
			QuestionsAndAnswers: envelope.Payload.Invitee.QuestionsAndAnswers,
		},
		Slot: SlotDetail{
			StartTime:       envelope.Payload.Event.StartTime,
			EndTime:         envelope.Payload.Event.EndTime,
			AppointmentType: strings.TrimSpace(envelope.Payload.Event.Name),
			Location:        strings.TrimSpace(envelope.Payload.Event.Location),
		},
	}
	if envelope.Payload.Event.Cancellation != nil {
		ev.CancellationReason = strings.TrimSpace(envelope.Payload.Event.Cancellation.Reason)
	}

	if err := validateVariant(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func validateVariant(ev *InboundEvent) error {
	if ev.InviteeID == "" {
		return fmt.Errorf("%w: payload.invitee.uuid", ErrMissingEventField)
	}

	switch ev.Type {
	case EventInviteeCreated:
		if ev.Invitee.Email == "" {
			return fmt.Errorf("%w: payload.invitee.email", ErrMissingEventField)
		}
		if ev.Slot.StartTime.IsZero() || ev.Slot.EndTime.IsZero() {
			return fmt.Errorf("%w: payload.event.start_time/end_time", ErrMissingEventField)
		}
	case EventInviteeRescheduled:
		if ev.Slot.StartTime.IsZero() || ev.Slot.EndTime.IsZero() {
			return fmt.Errorf("%w: payload.event.start_time/end_time", ErrMissingEventField)
		}
	case EventInviteeCanceled, EventNoShowCreated, EventNoShowDeleted:
		// invitee uuid is the only requirement; everything else is optional
	}
	return nil
}
