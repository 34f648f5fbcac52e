package scheduling

import (
	"encoding/json"
	"time"
)

// EventType identifies one of the provider's appointment lifecycle events.
type EventType string

const (
	EventInviteeCreated     EventType = "invitee.created"
	EventInviteeCanceled    EventType = "invitee.canceled"
	EventInviteeRescheduled EventType = "invitee.rescheduled"
	EventNoShowCreated      EventType = "invitee_no_show.created"
	EventNoShowDeleted      EventType = "invitee_no_show.deleted"
)

// Known reports whether this system processes the event type. Unknown types
// are acknowledged and dropped so the provider never retries them.
func (t EventType) Known() bool {
	switch t {
	case EventInviteeCreated, EventInviteeCanceled, EventInviteeRescheduled,
		EventNoShowCreated, EventNoShowDeleted:
		return true
	default:
		return false
	}
}

// QuestionAnswer is one custom booking-form answer from the invitee.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// InviteeDetail carries the attendee fields of an inbound event.
type InviteeDetail struct {
	Email               string           `json:"email"`
	Name                string           `json:"name"`
	CancelURL           string           `json:"cancel_url,omitempty"`
	RescheduleURL       string           `json:"reschedule_url,omitempty"`
	QuestionsAndAnswers []QuestionAnswer `json:"questions_and_answers,omitempty"`
}

// SlotDetail carries the scheduled-time fields of an inbound event.
type SlotDetail struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	AppointmentType string    `json:"appointment_type,omitempty"`
	Location        string    `json:"location,omitempty"`
}

// InboundEvent is the normalized form of one webhook delivery. The
// (EventID, Type) pair identifies one logical occurrence; the same pair may
// arrive multiple times over the network and is processed at most once.
type InboundEvent struct {
	Type       EventType
	EventID    string
	InviteeID  string
	OccurredAt time.Time
	ReceivedAt time.Time
	RawBody    []byte

	Invitee            InviteeDetail
	Slot               SlotDetail
	CancellationReason string
}

// MetadataJSON renders the opaque provider detail (location, Q&A, links)
// stored alongside the appointment record.
func (e *InboundEvent) MetadataJSON() string {
	meta := map[string]interface{}{}
	if e.Slot.Location != "" {
		meta["location"] = e.Slot.Location
	}
	if len(e.Invitee.QuestionsAndAnswers) > 0 {
		meta["questions_and_answers"] = e.Invitee.QuestionsAndAnswers
	}
	if e.Invitee.CancelURL != "" {
		meta["cancel_url"] = e.Invitee.CancelURL
	}
	if e.Invitee.RescheduleURL != "" {
		meta["reschedule_url"] = e.Invitee.RescheduleURL
	}
	if len(meta) == 0 {
		return ""
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	return string(out)
}

// webhookEnvelope is the wire shape of the provider payload. Field presence
// varies by event type; parse.go validates the per-type requirements.
type webhookEnvelope struct {
	Event   string    `json:"event"`
	Time    time.Time `json:"time"`
	Payload struct {
		Event struct {
			UUID         string    `json:"uuid"`
			Name         string    `json:"name"`
			StartTime    time.Time `json:"start_time"`
			EndTime      time.Time `json:"end_time"`
			Location     string    `json:"location"`
			Cancellation *struct {
				Reason     string `json:"reason"`
				CanceledBy string `json:"canceled_by"`
			} `json:"cancellation"`
		} `json:"event"`
		Invitee struct {
			UUID                string           `json:"uuid"`
			Email               string           `json:"email"`
			Name                string           `json:"name"`
			CancelURL           string           `json:"cancel_url"`
			RescheduleURL       string           `json:"reschedule_url"`
			QuestionsAndAnswers []QuestionAnswer `json:"questions_and_answers"`
		} `json:"invitee"`
	} `json:"payload"`
}
