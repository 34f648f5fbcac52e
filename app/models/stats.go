package models

import "time"

// WebhookDailyStat repräsentiert Webhook-Statistiken für einen einzelnen Tag.
// Rows are written by the counter flush worker from the Redis hashes, keyed
// by date + metric.
type WebhookDailyStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"type:varchar(10);not null;index:ux_webhook_daily_stats_date_metric,unique,priority:1" json:"date"`
	Metric    string    `gorm:"type:varchar(50);not null;index:ux_webhook_daily_stats_date_metric,unique,priority:2" json:"metric"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
