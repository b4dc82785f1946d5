package domain

import "github.com/shopspring/decimal"

// Customer records are owned by the customer directory; this service only
// ever reads them.
type Customer struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

type BookingRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	EventID     string `json:"event_id" validate:"required"`
	TicketCount int32  `json:"ticket_count" validate:"required,gt=0"`
}

// BookingResponse mirrors the published event. It means "booking accepted",
// not "order fulfilled": reconciliation happens asynchronously after this
// response is returned.
type BookingResponse struct {
	UserID      string          `json:"user_id"`
	EventID     string          `json:"event_id"`
	TicketCount int32           `json:"ticket_count"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}
