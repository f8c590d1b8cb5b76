package controllers

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// HandleThankYouStatus serves GET /api/thankyou/status?txn=... It lets the
// checkout success page poll until the background fulfillment pass has
// landed, then hands it the download URL. Purchases without a deliverable
// report ready without a URL.
func HandleThankYouStatus(c *fiber.Ctx) error {
	txn := c.Query("txn")
	if txn == "" {
		log.Warn("[Status] Missing txn")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing txn"})
	}

	rec, err := deps.Store.GetTransaction(c.Context(), txn)
	if err != nil {
		log.Errorf("[Status] Store lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Status temporarily unavailable"})
	}
	if rec == nil {
		return c.JSON(fiber.Map{"ready": false})
	}

	// Only hand out a URL when a token record actually backs it; a
	// transaction recorded without a deliverable has no download.
	if rec.DownloadToken != "" {
		tok, err := deps.Store.GetToken(c.Context(), rec.DownloadToken)
		if err != nil {
			log.Errorf("[Status] Token lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Status temporarily unavailable"})
		}
		if tok != nil {
			downloadURL := fmt.Sprintf("%s/download?token=%s", deps.PublicBaseURL, url.QueryEscape(rec.DownloadToken))
			return c.JSON(fiber.Map{"ready": true, "downloadUrl": downloadURL})
		}
	}
	return c.JSON(fiber.Map{"ready": true})
}
