package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/newopeningsupply/fulfillrelay/app/controllers"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/constants"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// The download link lands in emails and on third-party success pages,
	// so the endpoint allows cross-origin GETs.
	app.Get(constants.DownloadRoute, cors.New(cors.Config{
		AllowMethods: "GET,OPTIONS",
	}), controllers.HandleDownload)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
