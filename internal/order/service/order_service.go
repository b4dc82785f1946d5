package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	orderDomain "github.com/KevinLlano/Microservices-Ticketing-System/internal/order/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/repository"
	eventDomain "github.com/KevinLlano/Microservices-Ticketing-System/pkg/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/inventory"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
)

type OrderService interface {
	HandleBookingRecorded(ctx context.Context, event *eventDomain.BookingRecorded) error
}

type orderService struct {
	pool      *pgxpool.Pool
	logger    *zap.Logger
	orderRepo repository.OrderRepository
	inventory inventory.Gateway
	tracer    trace.Tracer
}

func NewOrderService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	orderRepo repository.OrderRepository,
	gateway inventory.Gateway,
) OrderService {
	return &orderService{
		pool:      pool,
		logger:    logger,
		orderRepo: orderRepo,
		inventory: gateway,
		tracer:    otel.Tracer("order_service"),
	}
}

// HandleBookingRecorded persists the order first and only then touches
// inventory. A duplicate delivery is a successful no-op. A persistence
// failure returns an error so the message is redelivered. A decrement
// failure after the commit is not an error here: the order stays pending
// and the reconciliation worker owns the retry from that point on.
func (s *orderService) HandleBookingRecorded(ctx context.Context, event *eventDomain.BookingRecorded) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandleBookingRecorded")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", event.BookingID),
		attribute.String("event_id", event.EventID),
		attribute.Int("ticket_count", int(event.TicketCount)),
	)

	order := &orderDomain.Order{
		BookingID:   event.BookingID,
		CustomerID:  event.UserID,
		EventID:     event.EventID,
		TicketCount: event.TicketCount,
		TotalPrice:  event.TotalPrice,
		Status:      orderDomain.OrderStatusInventoryPending,
	}

	if err := s.persistOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			mylogger.Info(
				ctx,
				s.logger,
				"Booking already processed, skipping",
				zap.String("booking_id", event.BookingID),
			)

			return nil
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to persist order",
			zap.String("booking_id", event.BookingID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.inventory.UpdateInventory(ctx, order.EventID, order.TicketCount); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Inventory decrement failed, order left pending for reconciliation",
			zap.Int64("order_id", order.ID),
			zap.String("event_id", order.EventID),
			zap.Error(err),
		)

		return nil
	}

	if err := s.markUpdated(ctx, order.ID); err != nil {
		// The decrement already landed but the status write did not. The
		// order stays pending, so the reconciliation worker will decrement
		// again; the inventory service tolerates repeated decrements.
		// Redelivery would not converge the status either, the dedup key
		// turns it into a no-op, so ack and let the worker finish.
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to mark order inventory_updated",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)

		return nil
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Inventory updated for order",
		zap.Int64("order_id", order.ID),
		zap.String("event_id", order.EventID),
		zap.Int32("ticket_count", order.TicketCount),
	)

	return nil
}

func (s *orderService) persistOrder(ctx context.Context, order *orderDomain.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(shutdownCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *orderService) markUpdated(ctx context.Context, orderID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(shutdownCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := s.orderRepo.MarkInventoryUpdated(ctx, tx, orderID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
