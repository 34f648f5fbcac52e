package repository

import (
	"time"

	"github.com/ManuelReschke/CalFox/app/models"
	"gorm.io/gorm"
)

// AppointmentRepository defines the interface for appointment-related database operations
type AppointmentRepository interface {
	GetByID(id uint) (*models.Appointment, error)
	GetByUUID(uuid string) (*models.Appointment, error)
	List(offset, limit int) ([]models.Appointment, error)
	ListByStatus(status string, offset, limit int) ([]models.Appointment, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	GetAuthorizations(appointmentID uint) ([]models.PaymentAuthorization, error)
	GetNotifications(appointmentID uint) ([]models.Notification, error)
	GetUpcoming(from time.Time, limit int) ([]models.Appointment, error)
}

// ClientRepository defines the interface for client-related database operations
type ClientRepository interface {
	GetByID(id uint) (*models.Client, error)
	GetByEmail(email string) (*models.Client, error)
	List(offset, limit int) ([]models.Client, error)
	Count() (int64, error)
	GetAppointments(clientID uint, offset, limit int) ([]models.Appointment, error)
}

// WebhookEventRepository defines the interface for stored webhook events
type WebhookEventRepository interface {
	GetByID(id uint) (*models.SchedulingWebhookEvent, error)
	List(offset, limit int) ([]models.SchedulingWebhookEvent, error)
	ListByOutcome(outcome string, offset, limit int) ([]models.SchedulingWebhookEvent, error)
	Count() (int64, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.WebhookDailyStat, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Appointment  AppointmentRepository
	Client       ClientRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Appointment:  NewAppointmentRepository(db),
		Client:       NewClientRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
