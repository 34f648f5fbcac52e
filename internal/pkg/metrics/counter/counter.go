package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/CalFox/app/models"
	"github.com/ManuelReschke/CalFox/internal/pkg/cache"
	"github.com/ManuelReschke/CalFox/internal/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Webhook metrics tracked per day. Counters accumulate in Redis hashes
// (metric -> {date: count}) and are flushed in batches to the stats table.
const (
	MetricReceived     = "received"
	MetricDuplicate    = "duplicate"
	MetricIgnored      = "ignored"
	MetricFailed       = "failed"
	MetricUnauthorized = "unauthorized"

	webhookCounterKeyPrefix = "webhook:counters:"
	dateLayout              = "2006-01-02"
)

// AddWebhookMetric increments the pending counter for a webhook metric in Redis
func AddWebhookMetric(metric string) error {
	ctx := context.Background()
	field := time.Now().UTC().Format(dateLayout)
	return cache.GetClient().HIncrBy(ctx, webhookCounterKeyPrefix+metric, field, 1).Err()
}

// FlushAll flushes all webhook counters to the database
func FlushAll() error {
	for _, metric := range []string{MetricReceived, MetricDuplicate, MetricIgnored, MetricFailed, MetricUnauthorized} {
		if err := flushMetric(metric); err != nil {
			return err
		}
	}
	return nil
}

// flushMetric drains one Redis hash atomically and applies batched increments
// to the stats table. Uses RENAME to a temporary key for atomic drain without
// losing in-flight increments.
func flushMetric(metric string) error {
	ctx := context.Background()
	rdb := cache.GetClient()
	redisKey := webhookCounterKeyPrefix + metric

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}
	defer rdb.Del(ctx, tmpKey)

	entries, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	db := database.GetDB()
	for date, raw := range entries {
		count, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil || count == 0 {
			continue
		}
		stat := &models.WebhookDailyStat{Date: date, Metric: metric, Count: count}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "metric"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + ?", count)}),
		}).Create(stat).Error; err != nil {
			return err
		}
	}
	return nil
}
