package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
)

type CustomerDirectory interface {
	FindByID(ctx context.Context, customerID string) (*domain.Customer, error)
}

type customerRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCustomerRepository(pool *pgxpool.Pool, logger *zap.Logger) CustomerDirectory {
	return &customerRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("customer_repository"),
	}
}

func (r *customerRepo) FindByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	ctx, span := r.tracer.Start(ctx, "CustomerRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("customer_id", customerID),
	)

	query := `
		SELECT id, name, email
		FROM customers
		WHERE id = $1
	`

	var customer domain.Customer
	err := r.pool.QueryRow(ctx, query, customerID).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query customer",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)

		return nil, err
	}

	return &customer, nil
}
