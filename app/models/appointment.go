package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment lifecycle states. Appointments are never physically deleted;
// cancellation is a status so the audit history survives.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCanceled  = "canceled"
	AppointmentStatusNoShow    = "no_show"
	AppointmentStatusCompleted = "completed"
)

// Appointment mirrors one booking from the scheduling provider.
// ProviderInviteeID is the join key for all update-class webhook events
// (cancel, reschedule, no-show) and is unique among non-deleted rows.
type Appointment struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	UUID               string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	ClientID           uint           `gorm:"not null;index" json:"client_id"`
	Client             Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ProviderEventID    string         `gorm:"type:varchar(191);not null;index" json:"provider_event_id"`
	ProviderInviteeID  string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"provider_invitee_id"`
	AppointmentType    string         `gorm:"type:varchar(150);default:''" json:"appointment_type"`
	ScheduledStart     time.Time      `gorm:"not null;index" json:"scheduled_start"`
	ScheduledEnd       time.Time      `gorm:"not null" json:"scheduled_end"`
	Status             string         `gorm:"type:varchar(50);not null;default:'scheduled';index" json:"status"`
	CancellationReason string         `gorm:"type:text" json:"cancellation_reason,omitempty"`
	NoShowRecordedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"no_show_recorded_at,omitempty"`
	Location           string         `gorm:"type:varchar(255);default:''" json:"location"`
	MetadataJSON       string         `gorm:"type:longtext" json:"metadata_json,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public UUID if the caller did not.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}

// IsTerminal reports whether no further lifecycle events are expected.
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentStatusCanceled
}
