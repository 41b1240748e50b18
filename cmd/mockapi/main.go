package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/sakashimaa/etech-storefront/internal/mockapi"
	"github.com/sakashimaa/etech-storefront/pkg/config"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := utils.ParseWithFallback("MOCKAPI_PORT", ":8080")
	secret := utils.ParseWithFallback("MOCKAPI_JWT_SECRET", "storefront-dev-secret")
	tokenTTL := utils.ParseDurationWithFallback("MOCKAPI_TOKEN_TTL", 24*time.Hour)

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: utils.ParseWithFallback("LOG_LEVEL", "info"),
		Env:   utils.ParseWithFallback("ENV", "dev"),
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	backend := mockapi.New(logger, mockapi.WithSecret(secret), mockapi.WithTokenTTL(tokenTTL))
	products, err := backend.SeedDemo()
	if err != nil {
		log.Fatalf("Error seeding demo data: %v", err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Mount("/api", backend.App())

	go func() {
		logger.Info("Mock backend listening",
			zap.String("port", port),
			zap.Int("products", len(products)),
			zap.String("admin", mockapi.DemoAdminEmail),
		)
		if err := app.Listen(port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	}
}
