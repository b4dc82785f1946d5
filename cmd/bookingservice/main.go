package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/repository"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/service"
	transport "github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/transport/http"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/config"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/db"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/inventory"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/kafka"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "booking-service")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := db.NewPostgresDB(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	customerRepo := repository.NewCustomerRepository(pool, logger)
	inventoryClient := inventory.NewClient(cfg.Inventory.URL, cfg.Inventory.Timeout, logger)
	bookingService := service.NewBookingService(customerRepo, inventoryClient, producer, logger)
	bookingHandler := transport.NewBookingHandler(bookingService, logger, cfg.HTTP.Timeout)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	transport.RegisterRoutes(app, bookingHandler)

	go func() {
		mylogger.Info(ctx, logger, "Booking service listening", zap.String("port", cfg.HTTP.Port))

		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down booking service")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := producer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
