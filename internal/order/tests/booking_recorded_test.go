package tests

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/KevinLlano/Microservices-Ticketing-System/internal/order/domain"
	eventDomain "github.com/KevinLlano/Microservices-Ticketing-System/pkg/domain"
)

func newBookingEvent(ticketCount int32, totalPrice string) *eventDomain.BookingRecorded {
	return &eventDomain.BookingRecorded{
		BookingID:   uuid.NewString(),
		UserID:      "u1",
		EventID:     "e1",
		TicketCount: ticketCount,
		TotalPrice:  decimal.RequireFromString(totalPrice),
	}
}

func (s *IntegrationTestSuite) orderRow(bookingID string) (status string, attempts int, totalPrice string) {
	query := `
		SELECT status, attempts, total_price::text
		FROM orders
		WHERE booking_id = $1
	`

	err := s.DbPool.QueryRow(s.Ctx, query, bookingID).Scan(&status, &attempts, &totalPrice)
	s.Require().NoError(err)

	return status, attempts, totalPrice
}

func (s *IntegrationTestSuite) countOrders() int {
	var count int
	err := s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	s.Require().NoError(err)
	return count
}

func (s *IntegrationTestSuite) TestBookingRecorded_PersistsAndDecrements() {
	event := newBookingEvent(5, "50.00")

	err := s.OrderService.HandleBookingRecorded(s.Ctx, event)
	s.Require().NoError(err)

	status, attempts, totalPrice := s.orderRow(event.BookingID)
	s.Require().Equal(string(domain.OrderStatusInventoryUpdated), status)
	s.Require().Zero(attempts)
	s.Require().Equal("50.00", totalPrice)

	s.Require().Equal(1, s.Gateway.Decrements())
}

func (s *IntegrationTestSuite) TestBookingRecorded_RedeliveryIsIdempotent() {
	event := newBookingEvent(3, "59.97")

	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, event))
	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, event))

	s.Require().Equal(1, s.countOrders(), "redelivery must not create a second order")
	s.Require().Equal(1, s.Gateway.Decrements(), "redelivery must not decrement twice")
}

func (s *IntegrationTestSuite) TestBookingRecorded_DistinctBookingsAreNotCollapsed() {
	// Same user, event and count, but separate bookings carry separate
	// idempotency tokens.
	first := newBookingEvent(2, "39.98")
	second := newBookingEvent(2, "39.98")

	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, first))
	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, second))

	s.Require().Equal(2, s.countOrders())
	s.Require().Equal(2, s.Gateway.Decrements())
}

func (s *IntegrationTestSuite) TestBookingRecorded_DecrementFailureLeavesPending() {
	s.Gateway.SetFailing(true)

	event := newBookingEvent(1, "19.99")
	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, event))

	status, _, _ := s.orderRow(event.BookingID)
	s.Require().Equal(string(domain.OrderStatusInventoryPending), status)
	s.Require().Zero(s.Gateway.Decrements())
}

func (s *IntegrationTestSuite) TestReconciler_RetriesPendingOrder() {
	s.Gateway.SetFailing(true)

	event := newBookingEvent(2, "20.00")
	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, event))

	// Collaborator comes back before the retry budget runs out.
	s.Gateway.SetFailing(false)
	s.Require().NoError(s.Reconciler.ProcessBatch(s.Ctx))

	status, _, _ := s.orderRow(event.BookingID)
	s.Require().Equal(string(domain.OrderStatusInventoryUpdated), status)
	s.Require().Equal(1, s.Gateway.Decrements())
}

func (s *IntegrationTestSuite) TestReconciler_DeadLettersAfterRetryBudget() {
	s.Gateway.SetFailing(true)

	event := newBookingEvent(4, "40.00")
	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, event))

	for i := 0; i < reconcilerMaxAttempts; i++ {
		s.Require().NoError(s.Reconciler.ProcessBatch(s.Ctx))
	}

	status, attempts, _ := s.orderRow(event.BookingID)
	s.Require().Equal(string(domain.OrderStatusInventoryFailed), status)
	s.Require().Equal(reconcilerMaxAttempts, attempts)

	messages := s.Producer.Messages()
	s.Require().Len(messages, 1)
	s.Require().Equal(eventDomain.TopicBookingsDLQ, messages[0].Topic)
	s.Require().Equal("e1", messages[0].Key)

	// A further pass must not touch the terminal order.
	s.Require().NoError(s.Reconciler.ProcessBatch(s.Ctx))
	s.Require().Len(s.Producer.Messages(), 1)
}

func (s *IntegrationTestSuite) TestReconciler_DeadLetterPublishFailureKeepsOrderPending() {
	s.Gateway.SetFailing(true)
	s.Producer.SetFailing(true)

	event := newBookingEvent(2, "20.00")
	s.Require().NoError(s.OrderService.HandleBookingRecorded(s.Ctx, event))

	for i := 0; i < reconcilerMaxAttempts; i++ {
		s.Require().NoError(s.Reconciler.ProcessBatch(s.Ctx))
	}

	// The budget is exhausted but the dead letter never left, so the order
	// must not be marked terminal and attempts must not grow past the
	// last recorded retry.
	status, attempts, _ := s.orderRow(event.BookingID)
	s.Require().Equal(string(domain.OrderStatusInventoryPending), status)
	s.Require().Equal(reconcilerMaxAttempts-1, attempts)
	s.Require().Empty(s.Producer.Messages())

	// Once the broker is back the next pass dead-letters and marks the
	// order terminal.
	s.Producer.SetFailing(false)
	s.Require().NoError(s.Reconciler.ProcessBatch(s.Ctx))

	status, _, _ = s.orderRow(event.BookingID)
	s.Require().Equal(string(domain.OrderStatusInventoryFailed), status)
	s.Require().Len(s.Producer.Messages(), 1)
}
