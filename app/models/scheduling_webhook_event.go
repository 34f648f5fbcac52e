package models

import "time"

// Processing outcomes for a stored webhook event. A row with an empty outcome
// and no processed_at means the process crashed mid-flight; the reconciliation
// API surfaces those for manual replay.
const (
	WebhookOutcomeSucceeded = "succeeded"
	WebhookOutcomeFailed    = "failed"
)

// SchedulingWebhookEvent stores provider webhook payloads with deduplication
// metadata for idempotent processing. The unique (provider_event_id,
// event_type) index is the sole dedup signal: the row is inserted before any
// side effect runs and is never deleted.
type SchedulingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;index:ux_scheduling_webhook_events_event_type,unique,priority:1" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index:ux_scheduling_webhook_events_event_type,unique,priority:2;index" json:"event_type"`
	ProviderInviteeID string   `gorm:"type:varchar(191);not null;default:'';index" json:"provider_invitee_id"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	ReceivedAt      time.Time  `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	Outcome         string     `gorm:"type:varchar(20);default:'';index" json:"outcome"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
