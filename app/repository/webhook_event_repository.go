package repository

import (
	"time"

	"github.com/ManuelReschke/CalFox/app/models"
	"gorm.io/gorm"
)

// webhookEventRepository implements WebhookEventRepository using GORM
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) GetByID(id uint) (*models.SchedulingWebhookEvent, error) {
	var event models.SchedulingWebhookEvent
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookEventRepository) List(offset, limit int) ([]models.SchedulingWebhookEvent, error) {
	var events []models.SchedulingWebhookEvent
	err := r.db.Order("received_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

func (r *webhookEventRepository) ListByOutcome(outcome string, offset, limit int) ([]models.SchedulingWebhookEvent, error) {
	var events []models.SchedulingWebhookEvent
	err := r.db.Where("outcome = ?", outcome).
		Order("received_at DESC").
		Offset(offset).Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *webhookEventRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.SchedulingWebhookEvent{}).Count(&count).Error
	return count, err
}

func (r *webhookEventRepository) GetDailyStats(startDate, endDate time.Time) ([]models.WebhookDailyStat, error) {
	var stats []models.WebhookDailyStat
	err := r.db.Where("date >= ? AND date <= ?", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")).
		Order("date ASC, metric ASC").
		Find(&stats).Error
	return stats, err
}
