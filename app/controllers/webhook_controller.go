package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/newopeningsupply/fulfillrelay/app/models"
	"github.com/newopeningsupply/fulfillrelay/app/repository"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/fulfillment"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/paddle"
)

// Dependencies carries everything the fulfillment controllers need. Wired
// once at startup via InitializeFulfillmentControllers.
type Dependencies struct {
	Processor     *fulfillment.Processor
	Gateway       *fulfillment.Gateway
	Store         fulfillment.TokenStore
	Orders        repository.OrderRepository
	WebhookSecret string
	PublicBaseURL string
}

var deps Dependencies

// InitializeFulfillmentControllers injects the controller dependencies.
func InitializeFulfillmentControllers(d Dependencies) {
	deps = d
}

// HandlePaddleWebhook processes POST /api/webhook/paddle. The provider
// enforces a response-time budget, so the response is sent as soon as the
// request is signature-valid and structurally acceptable; the fulfillment
// pass runs in the background and its failures are never surfaced here.
func HandlePaddleWebhook(c *fiber.Ctx) error {
	log.Info("[Webhook] Request received")

	rawBody := c.Body()
	signature := c.Get("Paddle-Signature")
	if !paddle.VerifyWebhookSignature(rawBody, signature, deps.WebhookSecret) {
		log.Error("[Webhook] Invalid signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}

	payload, err := paddle.ParseWebhookPayload(rawBody)
	if err != nil {
		log.Error("[Webhook] Invalid JSON")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	eventID := recordWebhookEvent(payload, rawBody)

	log.Infof("[Webhook] Event type: %s", payload.EventType)
	if payload.EventType != paddle.EventTypeTransactionCompleted {
		log.Info("[Webhook] Ignoring irrelevant event type, returning 200")
		return c.SendString("OK")
	}

	transactionID := payload.Data.TransactionID()
	if transactionID == "" {
		log.Error("[Webhook] transaction.completed missing transaction id")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing transaction id"})
	}
	log.Infof("[Webhook] transaction.completed accepted, txn: %s (processing in background)", transactionID)

	// Respond 200 immediately; process in background. Redeliveries of the
	// same transaction are absorbed by the processor's idempotency gate.
	data := payload.Data
	go func() {
		err := deps.Processor.Process(context.Background(), &data)
		if err != nil {
			log.Errorf("[Webhook] Background processing failed for %s: %v", transactionID, err)
		}
		markWebhookProcessed(eventID, err)
	}()

	return c.JSON(fiber.Map{"received": true})
}

// HandlePaddleWebhookHelp answers GET requests to the webhook URL. Paddle
// never calls the webhook with GET; a GET here means a checkout success URL
// was misconfigured to point at the webhook endpoint.
func HandlePaddleWebhookHelp(c *fiber.Ctx) error {
	log.Warn("[Webhook] GET request to webhook URL, success URL is likely misconfigured")
	return c.Type("html").SendString(
		"<h1>Wrong URL for checkout success</h1>" +
			"<p>This is the <strong>webhook</strong> endpoint for Paddle server-to-server calls. " +
			"Do not use it as your checkout success or redirect URL. " +
			"Point your success page at the thank-you status API instead.</p>")
}

// recordWebhookEvent writes the audit row for a delivery. Best-effort: a
// failed insert must not block acknowledgment, and a redelivered event id
// is deduplicated instead of erroring. Returns the stored row id, 0 when
// nothing was recorded.
func recordWebhookEvent(payload *paddle.WebhookPayload, rawBody []byte) uint {
	if deps.Orders == nil {
		return 0
	}
	created, stored, err := deps.Orders.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		ProviderEventID: payload.EventID,
		EventType:       payload.EventType,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Webhook] Audit insert failed: %v", err)
		return 0
	}
	if !created {
		log.Infof("[Webhook] Event %s already recorded (redelivery)", payload.EventID)
	}
	return stored.ID
}

func markWebhookProcessed(eventID uint, processingErr error) {
	if deps.Orders == nil || eventID == 0 {
		return
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	if err := deps.Orders.MarkWebhookProcessed(eventID, errMsg); err != nil {
		log.Errorf("[Webhook] Could not mark event %d processed: %v", eventID, err)
	}
}
