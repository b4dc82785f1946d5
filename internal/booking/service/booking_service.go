package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	bookingDomain "github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/internal/booking/repository"
	eventDomain "github.com/KevinLlano/Microservices-Ticketing-System/pkg/domain"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/inventory"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/kafka"
	"github.com/KevinLlano/Microservices-Ticketing-System/pkg/mylogger"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *bookingDomain.BookingRequest) (*bookingDomain.BookingResponse, error)
}

type bookingService struct {
	customers repository.CustomerDirectory
	inventory inventory.Gateway
	producer  kafka.Producer
	logger    *zap.Logger
	tracer    trace.Tracer
}

func NewBookingService(
	customers repository.CustomerDirectory,
	gateway inventory.Gateway,
	producer kafka.Producer,
	logger *zap.Logger,
) BookingService {
	return &bookingService{
		customers: customers,
		inventory: gateway,
		producer:  producer,
		logger:    logger,
		tracer:    otel.Tracer("booking_service"),
	}
}

// CreateBooking is read-check-publish, not read-check-commit: no lock is
// held between the capacity check and the downstream decrement, so two
// concurrent requests for the same event can both pass the check. The
// inventory collaborator's atomic conditional decrement is what ultimately
// prevents overselling.
func (s *bookingService) CreateBooking(ctx context.Context, req *bookingDomain.BookingRequest) (*bookingDomain.BookingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("event_id", req.EventID),
		attribute.Int("ticket_count", int(req.TicketCount)),
	)

	// Customer check strictly precedes the inventory check.
	customer, err := s.customers.FindByID(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			s.logger,
			"Customer lookup failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)

		return nil, err
	}

	// Point-in-time read, no lock held.
	snapshot, err := s.inventory.GetInventory(ctx, req.EventID)
	if err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			s.logger,
			"Inventory lookup failed",
			zap.String("event_id", req.EventID),
			zap.Error(err),
		)

		return nil, err
	}

	// Exact fit is allowed: ticketCount == capacity succeeds.
	if snapshot.Capacity < int64(req.TicketCount) {
		mylogger.Info(
			ctx,
			s.logger,
			"Not enough inventory",
			zap.String("event_id", req.EventID),
			zap.Int64("capacity", snapshot.Capacity),
			zap.Int32("ticket_count", req.TicketCount),
		)

		return nil, inventory.ErrInsufficientCapacity
	}

	event := &eventDomain.BookingRecorded{
		BookingID:   uuid.NewString(),
		UserID:      customer.ID,
		EventID:     req.EventID,
		TicketCount: req.TicketCount,
		TotalPrice:  snapshot.TicketPrice.Mul(decimal.NewFromInt32(req.TicketCount)),
	}

	envelope := map[string]any{
		"event":   eventDomain.EventTypeBookingRecorded,
		"payload": event,
	}

	// Keyed by event id so decrements for one event stay ordered downstream.
	if err := s.producer.ProduceMessage(ctx, eventDomain.TopicBookings, event.EventID, envelope); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to publish booking event",
			zap.String("booking_id", event.BookingID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Booking event published",
		zap.String("booking_id", event.BookingID),
		zap.String("event_id", event.EventID),
		zap.String("total_price", event.TotalPrice.String()),
	)

	return &bookingDomain.BookingResponse{
		UserID:      event.UserID,
		EventID:     event.EventID,
		TicketCount: event.TicketCount,
		TotalPrice:  event.TotalPrice,
	}, nil
}
