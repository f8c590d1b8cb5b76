package paddle

import (
	"encoding/json"
	"strings"
)

// EventTypeTransactionCompleted is the only event type that triggers
// fulfillment; every other type is acknowledged and ignored.
const EventTypeTransactionCompleted = "transaction.completed"

// CustomData can appear on products, prices, or whole transactions and may
// name the storage path of the deliverable file.
type CustomData struct {
	DownloadPath string `json:"download_path"`
	SKU          string `json:"sku"`
	ProductName  string `json:"product_name"`
}

// LineItemRef is an id-bearing reference inside a purchased line item.
type LineItemRef struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CustomData *CustomData `json:"custom_data"`
}

// LineItem is one purchased item in a completed transaction.
type LineItem struct {
	Price   *LineItemRef `json:"price"`
	Product *LineItemRef `json:"product"`
}

// Totals carries the transaction's monetary totals.
type Totals struct {
	Total      string `json:"total"`
	GrandTotal string `json:"grand_total"`
}

// Details holds the transaction detail block.
type Details struct {
	Totals *Totals `json:"totals"`
}

// Customer is the checkout customer block.
type Customer struct {
	Email string `json:"email"`
}

// Checkout holds checkout-scoped data of a transaction.
type Checkout struct {
	Customer *Customer `json:"customer"`
}

// TransactionData is the data object of a transaction.completed event.
type TransactionData struct {
	ID           string      `json:"id"`
	LegacyID     string      `json:"transaction_id"`
	Status       string      `json:"status"`
	CustomerID   string      `json:"customer_id"`
	CurrencyCode string      `json:"currency_code"`
	Items        []LineItem  `json:"items"`
	CustomData   *CustomData `json:"custom_data"`
	Details      *Details    `json:"details"`
	Checkout     *Checkout   `json:"checkout"`
}

// WebhookPayload is the outer envelope of every Paddle webhook delivery.
type WebhookPayload struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	OccurredAt     string          `json:"occurred_at"`
	NotificationID string          `json:"notification_id"`
	Data           TransactionData `json:"data"`
}

// ParseWebhookPayload decodes a raw webhook body.
func ParseWebhookPayload(raw []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// TransactionID returns the provider transaction identifier, accepting both
// the "id" and legacy "transaction_id" field locations.
func (d *TransactionData) TransactionID() string {
	if id := strings.TrimSpace(d.ID); id != "" {
		return id
	}
	return strings.TrimSpace(d.LegacyID)
}

// CustomerEmail extracts the checkout customer email, empty when absent.
func (d *TransactionData) CustomerEmail() string {
	if d.Checkout == nil || d.Checkout.Customer == nil {
		return ""
	}
	return strings.TrimSpace(d.Checkout.Customer.Email)
}

// GrandTotal returns the transaction grand total as reported by Paddle,
// falling back to the plain total, empty when neither is present.
func (d *TransactionData) GrandTotal() string {
	if d.Details == nil || d.Details.Totals == nil {
		return ""
	}
	if d.Details.Totals.GrandTotal != "" {
		return d.Details.Totals.GrandTotal
	}
	return d.Details.Totals.Total
}
