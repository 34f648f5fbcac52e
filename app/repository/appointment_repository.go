package repository

import (
	"time"

	"github.com/ManuelReschke/CalFox/app/models"
	"gorm.io/gorm"
)

// appointmentRepository implements AppointmentRepository using GORM
type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) GetByID(id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.Preload("Client").First(&appointment, id).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetByUUID(uuid string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.Preload("Client").Where("uuid = ?", uuid).First(&appointment).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(offset, limit int) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Preload("Client").
		Order("scheduled_start DESC").
		Offset(offset).Limit(limit).
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) ListByStatus(status string, offset, limit int) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Preload("Client").
		Where("status = ?", status).
		Order("scheduled_start DESC").
		Offset(offset).Limit(limit).
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Appointment{}).Count(&count).Error
	return count, err
}

func (r *appointmentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Appointment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *appointmentRepository) GetAuthorizations(appointmentID uint) ([]models.PaymentAuthorization, error) {
	var authorizations []models.PaymentAuthorization
	err := r.db.Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&authorizations).Error
	return authorizations, err
}

func (r *appointmentRepository) GetNotifications(appointmentID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&notifications).Error
	return notifications, err
}

func (r *appointmentRepository) GetUpcoming(from time.Time, limit int) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Preload("Client").
		Where("status = ? AND scheduled_start >= ?", models.AppointmentStatusScheduled, from).
		Order("scheduled_start ASC").
		Limit(limit).
		Find(&appointments).Error
	return appointments, err
}
