package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/newopeningsupply/fulfillrelay/app/models"
)

// OrderRepository provides DB operations used by the fulfillment pipeline.
type OrderRepository interface {
	InsertOrder(order *models.Order) error
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository backed by GORM.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

func (r *gormOrderRepository) InsertOrder(order *models.Order) error {
	// Redelivered webhooks are normally stopped by the idempotency gate
	// before reaching this insert; the conflict clause covers the race
	// where two first-time passes run concurrently.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(order).Error
}

func (r *gormOrderRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if event.ProviderEventID == "" {
		sum := sha256.Sum256([]byte(event.PayloadJSON))
		event.ProviderEventID = "hash:" + hex.EncodeToString(sum[:])
	}

	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormOrderRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
