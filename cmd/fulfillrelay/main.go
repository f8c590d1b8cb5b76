package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/newopeningsupply/fulfillrelay/app/controllers"
	"github.com/newopeningsupply/fulfillrelay/app/repository"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/blobstore"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/cache"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/database"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/env"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/fulfillment"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/mail"
	"github.com/newopeningsupply/fulfillrelay/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	blobConfig, err := blobstore.LoadConfig()
	if err != nil {
		log.Fatalf("blob storage configuration: %v", err)
	}
	blobs, err := blobstore.NewClient(blobConfig)
	if err != nil {
		log.Fatalf("blob storage client: %v", err)
	}

	webhookSecret := env.GetEnv("PADDLE_WEBHOOK_SECRET", "")
	if webhookSecret == "" {
		log.Fatal("PADDLE_WEBHOOK_SECRET is required")
	}
	baseURL := env.GetEnv("PUBLIC_BASE_URL", "http://localhost:4000")

	store := fulfillment.NewRedisStore(cache.GetClient())
	resolver := fulfillment.NewResolver(loadPriceKeyTable())
	orders := repository.NewOrderRepository(database.GetDB())
	processor := fulfillment.NewProcessor(store, resolver, orders, mail.NewSMTPMailer(), baseURL)
	gateway := fulfillment.NewGateway(store, blobs)

	controllers.InitializeFulfillmentControllers(controllers.Dependencies{
		Processor:     processor,
		Gateway:       gateway,
		Store:         store,
		Orders:        orders,
		WebhookSecret: webhookSecret,
		PublicBaseURL: baseURL,
	})

	app := fiber.New(fiber.Config{
		AppName: "fulfillrelay",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app)

	return app
}

// loadPriceKeyTable reads the static price/product → delivery path table
// from PRICE_KEY_TABLE, a JSON object like {"pri_123":"brand-kit"}.
func loadPriceKeyTable() map[string]string {
	raw := env.GetEnv("PRICE_KEY_TABLE", "")
	if raw == "" {
		return nil
	}
	table := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		log.Printf("PRICE_KEY_TABLE is not valid JSON, ignoring: %v", err)
		return nil
	}
	return table
}
