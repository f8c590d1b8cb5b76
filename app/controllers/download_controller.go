package controllers

import (
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/newopeningsupply/fulfillrelay/internal/pkg/fulfillment"
)

// HandleDownload serves GET /download?token=... Each access-failure case
// keeps its own status so the page behind the link can tell the user
// whether to check their email or contact support. With debug=1 the same
// decisions are returned as structured JSON.
func HandleDownload(c *fiber.Ctx) error {
	token := c.Query("token")
	debug := c.Query("debug") == "1"

	if token == "" {
		log.Warn("[Download] Missing token")
		return downloadFailure(c, debug, fiber.StatusBadRequest, "Missing token", "token_param")
	}

	dl, err := deps.Gateway.Open(c.Context(), token)
	switch {
	case errors.Is(err, fulfillment.ErrTokenNotFound):
		return downloadFailure(c, debug, fiber.StatusNotFound, "Link not found or expired", "token_lookup")
	case errors.Is(err, fulfillment.ErrTokenExpired):
		return downloadFailure(c, debug, fiber.StatusGone, "This download link has expired. Contact support for a new link.", "expiry_check")
	case errors.Is(err, fulfillment.ErrObjectMissing):
		return downloadFailure(c, debug, fiber.StatusNotFound, "File not found", "object_fetch")
	case err != nil:
		log.Errorf("[Download] Gateway error: %v", err)
		return downloadFailure(c, debug, fiber.StatusInternalServerError, "Download temporarily unavailable", "gateway")
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Filename))
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderContentType, dl.ContentType)
	log.Infof("[Download] Serving file: %s", dl.Filename)
	if size, ok := streamSize(dl.Size); ok {
		return c.SendStream(dl.Body, size)
	}
	return c.SendStream(dl.Body)
}

// streamSize converts an object size for SendStream. On 32-bit builds int
// cannot hold sizes over 2 GiB; such objects stream unsized rather than
// with a truncated content length.
func streamSize(n int64) (int, bool) {
	if n > 0 && n <= math.MaxInt {
		return int(n), true
	}
	return 0, false
}

func downloadFailure(c *fiber.Ctx, debug bool, status int, message, step string) error {
	if debug {
		return c.Status(status).JSON(fiber.Map{"error": message, "step": step})
	}
	return c.Status(status).SendString(message)
}
