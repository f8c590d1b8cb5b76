package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/newopeningsupply/fulfillrelay/app/models"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/paddle"
)

// DownloadExpiry is how long an issued download link stays valid.
const DownloadExpiry = 30 * 24 * time.Hour

// OrderRecorder persists the order row for a completed transaction.
// Failures are logged and swallowed; order persistence is best-effort.
type OrderRecorder interface {
	InsertOrder(order *models.Order) error
}

// Mailer sends an HTML email. Failures are logged and swallowed.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Processor runs the fulfillment pass for a completed transaction:
// idempotency gate, deliverable resolution, token issuance, persistence,
// and best-effort notifications.
type Processor struct {
	store    TokenStore
	resolver *Resolver
	orders   OrderRecorder
	mailer   Mailer
	baseURL  string

	now      func() time.Time
	newToken func() string
}

// NewProcessor wires a Processor. baseURL is the public origin used to build
// download links, e.g. "https://downloads.example.com".
func NewProcessor(store TokenStore, resolver *Resolver, orders OrderRecorder, mailer Mailer, baseURL string) *Processor {
	return &Processor{
		store:    store,
		resolver: resolver,
		orders:   orders,
		mailer:   mailer,
		baseURL:  baseURL,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Process fulfills one transaction.completed delivery. It is safe to call
// any number of times for the same transaction: the first durable
// transaction record suppresses every later pass. The returned error covers
// store failures only; notification failures are logged, never propagated.
func (p *Processor) Process(ctx context.Context, data *paddle.TransactionData) error {
	transactionID := data.TransactionID()
	if transactionID == "" {
		return errors.New("transaction id is required")
	}

	// Idempotency gate. Must run before any token is minted: webhook
	// delivery is at-least-once and redeliveries land here.
	existing, err := p.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("idempotency lookup for %s: %w", transactionID, err)
	}
	if existing != nil {
		log.Infof("[Fulfillment] Transaction %s already processed, skipping", transactionID)
		return nil
	}

	resourceKey := p.resolver.Resolve(data.Items, data.CustomData)
	if resourceKey == "" {
		log.Warnf("[Fulfillment] No deliverable resolved for transaction %s, recording without token", transactionID)
	}

	downloadToken := p.newToken()
	now := p.now()

	// The transaction record is written first: it is the idempotency
	// marker and must exist even when there is nothing to download.
	if err := p.store.PutTransaction(ctx, transactionID, TransactionRecord{
		DownloadToken: downloadToken,
		CreatedAt:     now,
	}); err != nil {
		return fmt.Errorf("persist transaction %s: %w", transactionID, err)
	}

	if resourceKey != "" {
		if err := p.store.PutToken(ctx, downloadToken, TokenRecord{
			ResourceKey: resourceKey,
			ProductID:   firstPriceID(data.Items),
			ExpiresAt:   now.Add(DownloadExpiry),
		}); err != nil {
			return fmt.Errorf("persist token for %s: %w", transactionID, err)
		}
	}

	p.notify(data, transactionID, downloadToken, resourceKey)

	log.Infof("[Fulfillment] Transaction %s processed (deliverable: %v)", transactionID, resourceKey != "")
	return nil
}

// notify fans out the order record and customer emails. Every step is
// best-effort: a failed insert or send is logged and the pass continues.
func (p *Processor) notify(data *paddle.TransactionData, transactionID, downloadToken, resourceKey string) {
	itemsJSON, err := json.Marshal(data.Items)
	if err != nil {
		itemsJSON = []byte("[]")
	}

	order := &models.Order{
		TransactionID: transactionID,
		CustomerEmail: data.CustomerEmail(),
		CurrencyCode:  data.CurrencyCode,
		GrandTotal:    data.GrandTotal(),
		ResourceKey:   resourceKey,
		DownloadToken: downloadToken,
		ItemsJSON:     string(itemsJSON),
	}
	if err := p.orders.InsertOrder(order); err != nil {
		log.Errorf("[Fulfillment] Order insert failed for %s: %v", transactionID, err)
	}

	customerEmail := data.CustomerEmail()
	if customerEmail == "" {
		log.Warnf("[Fulfillment] No customer email for %s, suppressing notification", transactionID)
		return
	}

	if resourceKey != "" {
		downloadURL := fmt.Sprintf("%s/download?token=%s", p.baseURL, downloadToken)
		body := fmt.Sprintf(
			"<p>Thanks for your purchase. Download your file here:</p><p><a href=%q>Download</a></p><p>This link expires in %d days.</p>",
			downloadURL, int(DownloadExpiry.Hours()/24),
		)
		if err := p.mailer.Send(customerEmail, "Your download is ready", body); err != nil {
			log.Errorf("[Fulfillment] Download email failed for %s: %v", transactionID, err)
		}
	}

	confirmation := fmt.Sprintf("<p>Order confirmed. Transaction: %s.</p>", transactionID)
	if resourceKey != "" {
		confirmation = fmt.Sprintf("<p>Order confirmed. Transaction: %s. Your download link has been sent in a separate email.</p>", transactionID)
	}
	if err := p.mailer.Send(customerEmail, "Order confirmation", confirmation); err != nil {
		log.Errorf("[Fulfillment] Confirmation email failed for %s: %v", transactionID, err)
	}
}

func firstPriceID(items []paddle.LineItem) string {
	for _, item := range items {
		if item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
		if item.Product != nil && item.Product.ID != "" {
			return item.Product.ID
		}
	}
	return ""
}
