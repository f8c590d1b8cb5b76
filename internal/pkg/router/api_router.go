package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/newopeningsupply/fulfillrelay/app/controllers"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/constants"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))

	api.Post(constants.PaddleWebhookRoute, controllers.HandlePaddleWebhook)
	api.Get(constants.PaddleWebhookRoute, controllers.HandlePaddleWebhookHelp)

	// Polled cross-origin by the checkout success page.
	api.Get(constants.ThankYouStatusRoute, cors.New(cors.Config{
		AllowMethods: "GET,OPTIONS",
	}), controllers.HandleThankYouStatus)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
