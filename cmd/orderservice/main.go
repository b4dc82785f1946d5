package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/repository"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/service"
	transport "github.com/KevinLlano/Microservices-Ticketing-System/internal/order/transport/kafka"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/worker"
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

	tp, err := utils.InitTracer(ctx, "order-service")
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

	orderRepo := repository.NewOrderRepository(pool, logger)
	inventoryClient := inventory.NewClient(cfg.Inventory.URL, cfg.Inventory.Timeout, logger)
	orderService := service.NewOrderService(pool, logger, orderRepo, inventoryClient)

	reconciler := worker.NewInventoryReconciler(
		pool,
		orderRepo,
		inventoryClient,
		producer,
		logger,
		cfg.Reconciler.BatchSize,
		cfg.Reconciler.Interval,
		cfg.Reconciler.MaxAttempts,
	)

	go reconciler.Start(ctx)

	consumer := transport.NewConsumer(orderService, logger, cfg.Kafka.GroupID)
	consumer.Start(ctx, cfg.Kafka.Brokers)

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down order service")

	if err := producer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
