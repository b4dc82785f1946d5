package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	MarkInventoryUpdated(ctx context.Context, tx pgx.Tx, orderID int64) error
	MarkRetryFailed(ctx context.Context, tx pgx.Tx, orderID int64, errMsg string) error
	MarkInventoryFailed(ctx context.Context, tx pgx.Tx, orderID int64, errMsg string) error
	GetPendingOrders(ctx context.Context, tx pgx.Tx, batchSize int, maxAttempts int) ([]*domain.Order, error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

// CreateOrder inserts the order row for a booking. The unique constraint on
// booking_id is the idempotency barrier: a redelivered event surfaces as
// ErrDuplicateBooking instead of a second row.
func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", order.BookingID),
		attribute.String("event_id", order.EventID),
	)

	query := `
		INSERT INTO orders (booking_id, customer_id, event_id, ticket_count, total_price, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		order.BookingID,
		order.CustomerID,
		order.EventID,
		order.TicketCount,
		order.TotalPrice,
		string(order.Status),
	).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			return ErrDuplicateBooking
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.String("booking_id", order.BookingID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *orderRepo) MarkInventoryUpdated(ctx context.Context, tx pgx.Tx, orderID int64) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.MarkInventoryUpdated")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	query := `
		UPDATE orders
		SET status = $1, last_error = NULL, updated_at = NOW()
		WHERE id = $2
	`

	return r.updateStatus(ctx, tx, query, string(domain.OrderStatusInventoryUpdated), orderID)
}

// MarkRetryFailed records a failed decrement attempt; the order stays
// pending so the reconciliation worker picks it up again.
func (r *orderRepo) MarkRetryFailed(ctx context.Context, tx pgx.Tx, orderID int64, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.MarkRetryFailed")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("order.error_message", errMsg),
	)

	query := `
		UPDATE orders
		SET attempts = attempts + 1, last_error = $1, updated_at = NOW()
		WHERE id = $2
	`

	commandTag, err := tx.Exec(ctx, query, errMsg, orderID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if commandTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// MarkInventoryFailed is the terminal dead-letter transition after the
// retry budget is exhausted; operators reconcile these by hand.
func (r *orderRepo) MarkInventoryFailed(ctx context.Context, tx pgx.Tx, orderID int64, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.MarkInventoryFailed")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("order.error_message", errMsg),
	)

	query := `
		UPDATE orders
		SET status = $1, attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $3
	`

	commandTag, err := tx.Exec(ctx, query, string(domain.OrderStatusInventoryFailed), errMsg, orderID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if commandTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *orderRepo) GetPendingOrders(ctx context.Context, tx pgx.Tx, batchSize int, maxAttempts int) ([]*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetPendingOrders")
	defer span.End()

	span.SetAttributes(attribute.Int("batch_size", batchSize))

	query := `
		SELECT id, booking_id, customer_id, event_id, ticket_count, total_price, status, attempts, last_error, created_at, updated_at
		FROM orders
		WHERE status = $1 AND attempts < $2
		ORDER BY created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`

	rows, err := tx.Query(ctx, query, string(domain.OrderStatusInventoryPending), maxAttempts, batchSize)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query pending orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.BookingID,
			&o.CustomerID,
			&o.EventID,
			&o.TicketCount,
			&o.TotalPrice,
			&o.Status,
			&o.Attempts,
			&o.LastError,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning order: %w", err)
		}

		orders = append(orders, &o)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result_count", len(orders)))

	return orders, nil
}

func (r *orderRepo) updateStatus(ctx context.Context, tx pgx.Tx, query string, args ...any) error {
	commandTag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order status",
			zap.Error(err),
		)

		return fmt.Errorf("failed to update order: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
