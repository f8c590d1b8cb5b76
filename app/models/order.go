package models

import "time"

// Order is the durable record of one fulfilled purchase. It exists for
// order tracking and support lookups; the authoritative fulfillment state
// lives in the token store.
type Order struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"transaction_id"`
	CustomerEmail string    `gorm:"type:varchar(255);not null;default:'';index" json:"customer_email"`
	CurrencyCode  string    `gorm:"type:varchar(10);not null;default:''" json:"currency_code"`
	GrandTotal    string    `gorm:"type:varchar(32);not null;default:''" json:"grand_total"`
	ResourceKey   string    `gorm:"type:varchar(512);not null;default:''" json:"resource_key"`
	DownloadToken string    `gorm:"type:varchar(191);not null;default:'';index" json:"download_token"`
	ItemsJSON     string    `gorm:"type:longtext" json:"items_json"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
