package models

import "time"

// Payment authorization kinds and states. One appointment may accumulate more
// than one authorization (base fee plus a late-cancellation fee).
const (
	PaymentKindAppointmentFee  = "appointment_fee"
	PaymentKindCancellationFee = "cancellation_fee"

	PaymentStatusPending = "pending"
	PaymentStatusSettled = "settled"
	PaymentStatusVoided  = "voided"
)

// PaymentAuthorization records money owed or held for an appointment. Rows are
// created by the scheduling state machine, never directly by the webhook layer.
type PaymentAuthorization struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	AppointmentID uint        `gorm:"not null;index" json:"appointment_id"`
	Appointment   Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
	AmountCents   int64       `gorm:"not null" json:"amount_cents"`
	Kind          string      `gorm:"type:varchar(50);not null;index" json:"kind"`
	Status        string      `gorm:"type:varchar(50);not null;default:'pending'" json:"status"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
