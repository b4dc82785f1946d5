package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	TopicBookings    = "bookings"
	TopicBookingsDLQ = "bookings.dlq"

	EventTypeBookingRecorded = "BookingRecorded"
)

// EventWrapper is the envelope every message on the bus is wrapped in.
type EventWrapper struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// BookingRecorded is the sole unit of state transfer between the booking
// and order services. BookingID is a per-booking idempotency token minted
// by the booking service; two identical bookings issued back to back carry
// distinct tokens, while broker redelivery of one event carries the same
// token. TotalPrice is fixed at validation time and never re-derived
// downstream.
type BookingRecorded struct {
	BookingID   string          `json:"booking_id"`
	UserID      string          `json:"user_id"`
	EventID     string          `json:"event_id"`
	TicketCount int32           `json:"ticket_count"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}
