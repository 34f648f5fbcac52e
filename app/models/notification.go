package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification kinds sent in reaction to appointment lifecycle changes.
const (
	NotificationKindConfirmation = "confirmation"
	NotificationKindCancellation = "cancellation"
	NotificationKindReschedule   = "reschedule"

	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// Notification is one outbound message queued by the scheduling state machine.
// Delivery happens asynchronously in the job queue; the row doubles as the
// audit trail for the fire-and-forget dispatch.
type Notification struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AppointmentID uint           `gorm:"index" json:"appointment_id"`
	Kind          string         `gorm:"type:varchar(50)" json:"kind" validate:"oneof=confirmation cancellation reschedule"`
	Recipient     string         `gorm:"type:varchar(200);not null" json:"recipient"`
	Subject       string         `gorm:"type:varchar(255)" json:"subject"`
	Body          string         `gorm:"type:text" json:"body"`
	Status        string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SentAt        *time.Time     `gorm:"type:timestamp;default:null" json:"sent_at,omitempty"`
	ErrorMsg      string         `gorm:"type:text" json:"error_msg,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsSent records a successful delivery.
func (n *Notification) MarkAsSent(db *gorm.DB) error {
	now := time.Now()
	n.Status = NotificationStatusSent
	n.SentAt = &now
	return db.Model(n).Updates(map[string]interface{}{"status": n.Status, "sent_at": n.SentAt}).Error
}

// MarkAsFailed records a delivery failure with its error message.
func (n *Notification) MarkAsFailed(db *gorm.DB, errMsg string) error {
	n.Status = NotificationStatusFailed
	n.ErrorMsg = errMsg
	return db.Model(n).Updates(map[string]interface{}{"status": n.Status, "error_msg": errMsg}).Error
}
