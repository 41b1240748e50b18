package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sakashimaa/etech-storefront/internal/app"
	"github.com/sakashimaa/etech-storefront/internal/transport/http"
	"github.com/sakashimaa/etech-storefront/pkg/config"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: cfg.LogLevel,
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	shutdownTracer := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		tp, err := utils.InitTracer(ctx, utils.TracerConfig{
			ServiceName: cfg.Tracing.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			log.Fatalf("Failed to init trace: %v", err)
		}
		shutdownTracer = tp.Shutdown
	}

	storefront, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Error creating storefront: %v", err)
	}

	go func() {
		if err := storefront.Run(ctx); err != nil {
			logger.Error("background workers stopped", zap.Error(err))
		}
	}()

	server := http.NewServer(storefront, cfg, logger)

	go func() {
		logger.Info("Storefront listening", zap.String("port", cfg.HTTP.Port), zap.String("backend", cfg.Backend.BaseURL))
		if err := server.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := storefront.Close(); err != nil {
		log.Printf("Error closing storefront: %v\n", err)
	}

	if err := shutdownTracer(shutdownContext); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}
}
