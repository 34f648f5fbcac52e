package scheduling

import (
	"time"

	"github.com/ManuelReschke/CalFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the scheduling service.
// Updates to a single appointment go through UpdateAppointment as one atomic
// read-modify-write; the unique index behind CreateWebhookEventIfNotExists is
// the only mutual-exclusion primitive the processor needs.
type Repository interface {
	CreateWebhookEventIfNotExists(event *models.SchedulingWebhookEvent) (bool, *models.SchedulingWebhookEvent, error)
	MarkWebhookProcessed(id uint, outcome string, processingError string) error
	GetWebhookEventByID(id uint) (*models.SchedulingWebhookEvent, error)

	FindOrCreateClientByEmail(email, name string) (*models.Client, error)
	GetClientByID(id uint) (*models.Client, error)
	CreateAppointment(appointment *models.Appointment) error
	GetAppointmentByInviteeID(providerInviteeID string) (*models.Appointment, error)
	UpdateAppointment(id uint, updates map[string]interface{}) error

	CreatePaymentAuthorization(auth *models.PaymentAuthorization) error
	CreateNotification(notification *models.Notification) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a scheduling repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateWebhookEventIfNotExists inserts the dedup row before any processing
// runs. Under concurrent delivery of the same (event id, event type) pair
// exactly one caller gets created=true; the losers read the stored row and
// skip transition and side-effect logic entirely.
func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.SchedulingWebhookEvent) (bool, *models.SchedulingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_event_id"},
			{Name: "event_type"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.SchedulingWebhookEvent
	if err := r.db.Where("provider_event_id = ? AND event_type = ?", event.ProviderEventID, event.EventType).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, outcome string, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"outcome":          outcome,
		"processing_error": processingError,
	}
	return r.db.Model(&models.SchedulingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetWebhookEventByID(id uint) (*models.SchedulingWebhookEvent, error) {
	var event models.SchedulingWebhookEvent
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindOrCreateClientByEmail resolves the appointment subject. The insert uses
// ON CONFLICT DO NOTHING on the unique email index so two bookings for a new
// client racing each other both end up on the same row.
func (r *gormRepository) FindOrCreateClientByEmail(email, name string) (*models.Client, error) {
	client := &models.Client{
		Email:  email,
		Name:   name,
		Status: models.CLIENT_STATUS_ACTIVE,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(client).Error; err != nil {
		return nil, err
	}

	var stored models.Client
	if err := r.db.Where("email = ?", email).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *gormRepository) GetClientByID(id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *gormRepository) CreateAppointment(appointment *models.Appointment) error {
	return r.db.Create(appointment).Error
}

func (r *gormRepository) GetAppointmentByInviteeID(providerInviteeID string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.Where("provider_invitee_id = ?", providerInviteeID).First(&appointment).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *gormRepository) UpdateAppointment(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Appointment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) CreatePaymentAuthorization(auth *models.PaymentAuthorization) error {
	return r.db.Create(auth).Error
}

func (r *gormRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}
