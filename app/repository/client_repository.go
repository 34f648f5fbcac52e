package repository

import (
	"github.com/ManuelReschke/CalFox/app/models"
	"gorm.io/gorm"
)

// clientRepository implements ClientRepository using GORM
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) GetByID(id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) GetByEmail(email string) (*models.Client, error) {
	var client models.Client
	if err := r.db.Where("email = ?", email).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(offset, limit int) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&clients).Error
	return clients, err
}

func (r *clientRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Client{}).Count(&count).Error
	return count, err
}

func (r *clientRepository) GetAppointments(clientID uint, offset, limit int) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := r.db.Where("client_id = ?", clientID).
		Order("scheduled_start DESC").
		Offset(offset).Limit(limit).
		Find(&appointments).Error
	return appointments, err
}
