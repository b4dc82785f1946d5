// Package worker retries inventory decrements for orders whose write
// landed but whose inventory effect did not. It polls the orders table
// rather than replaying the broker, so a crash between persistence and
// decrement is always recoverable from durable state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	orderDomain "github.com/KevinLlano/Microservices-Ticketing-System/internal/order/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/repository"
	eventDomain "github.com/KevinLlano/Microservices-Ticketing-System/pkg/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/inventory"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
)

type KafkaProducer interface {
	ProduceMessage(ctx context.Context, topic string, key string, message interface{}) error
}

type InventoryReconciler struct {
	pool        *pgxpool.Pool
	repo        repository.OrderRepository
	gateway     inventory.Gateway
	producer    KafkaProducer
	logger      *zap.Logger
	batchSize   int
	interval    time.Duration
	maxAttempts int
	tracer      trace.Tracer
}

func NewInventoryReconciler(
	pool *pgxpool.Pool,
	repo repository.OrderRepository,
	gateway inventory.Gateway,
	producer KafkaProducer,
	logger *zap.Logger,
	batchSize int,
	interval time.Duration,
	maxAttempts int,
) *InventoryReconciler {
	return &InventoryReconciler{
		pool:        pool,
		repo:        repo,
		gateway:     gateway,
		producer:    producer,
		logger:      logger,
		batchSize:   batchSize,
		interval:    interval,
		maxAttempts: maxAttempts,
		tracer:      otel.Tracer("inventory-reconciler"),
	}
}

func (r *InventoryReconciler) Start(ctx context.Context) {
	mylogger.Info(ctx, r.logger, "Starting inventory reconciler")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, r.logger, "Inventory reconciler stopping")
			return
		case <-ticker.C:
			if err := r.ProcessBatch(ctx); err != nil {
				mylogger.Error(
					ctx,
					r.logger,
					"Error processing reconciliation batch",
					zap.Error(err),
				)
			}
		}
	}
}

// ProcessBatch claims pending orders with SKIP LOCKED so concurrent workers
// never retry the same order, keeping per-order side effects serialized.
func (r *InventoryReconciler) ProcessBatch(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "InventoryReconciler.ProcessBatch")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(
				cleanupCtx,
				r.logger,
				"Reconciler failed to rollback transaction",
				zap.Error(err),
			)
		}
	}()

	orders, err := r.repo.GetPendingOrders(ctx, tx, r.batchSize, r.maxAttempts)
	if err != nil {
		return err
	}

	if len(orders) == 0 {
		return nil
	}

	mylogger.Info(
		ctx,
		r.logger,
		"Reconciling pending orders",
		zap.Int("count", len(orders)),
	)

	for _, order := range orders {
		if err := r.reconcileOrder(ctx, tx, order); err != nil {
			mylogger.Error(
				ctx,
				r.logger,
				"Failed to reconcile order",
				zap.Int64("order_id", order.ID),
				zap.Error(err),
			)
		}
	}

	return tx.Commit(ctx)
}

func (r *InventoryReconciler) reconcileOrder(ctx context.Context, tx pgx.Tx, order *orderDomain.Order) error {
	err := r.gateway.UpdateInventory(ctx, order.EventID, order.TicketCount)
	if err == nil {
		mylogger.Info(
			ctx,
			r.logger,
			"Inventory reconciled for order",
			zap.Int64("order_id", order.ID),
			zap.String("event_id", order.EventID),
		)

		return r.repo.MarkInventoryUpdated(ctx, tx, order.ID)
	}

	// The attempt about to be recorded is attempts+1; at the budget the
	// order dead-letters.
	if int(order.Attempts)+1 >= r.maxAttempts {
		mylogger.Error(
			ctx,
			r.logger,
			"Retry budget exhausted, dead-lettering order",
			zap.Int64("order_id", order.ID),
			zap.Int32("attempts", order.Attempts+1),
			zap.Error(err),
		)

		// Publish before the terminal mark. If the publish fails the order
		// is left untouched, still pending and under budget, so the next
		// batch retries both the decrement and the dead letter.
		if pubErr := r.publishDeadLetter(ctx, order, err); pubErr != nil {
			return pubErr
		}

		return r.repo.MarkInventoryFailed(ctx, tx, order.ID, err.Error())
	}

	mylogger.Warn(
		ctx,
		r.logger,
		"Inventory decrement retry failed",
		zap.Int64("order_id", order.ID),
		zap.Int32("attempts", order.Attempts+1),
		zap.Error(err),
	)

	return r.repo.MarkRetryFailed(ctx, tx, order.ID, err.Error())
}

func (r *InventoryReconciler) publishDeadLetter(ctx context.Context, order *orderDomain.Order, cause error) error {
	event := &eventDomain.BookingRecorded{
		BookingID:   order.BookingID,
		UserID:      order.CustomerID,
		EventID:     order.EventID,
		TicketCount: order.TicketCount,
		TotalPrice:  order.TotalPrice,
	}

	envelope := map[string]any{
		"event":   eventDomain.EventTypeBookingRecorded,
		"payload": event,
		"error":   cause.Error(),
	}

	if err := r.producer.ProduceMessage(ctx, eventDomain.TopicBookingsDLQ, order.EventID, envelope); err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Failed to publish dead letter",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)

		return err
	}

	return nil
}
