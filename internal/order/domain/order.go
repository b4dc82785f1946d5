package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// Orders are persisted before any inventory side effect is attempted, so a
// crash never loses written intent. The lifecycle is
// inventory_pending -> inventory_updated (terminal) or -> inventory_failed
// (terminal, manual reconciliation).
const (
	OrderStatusInventoryPending OrderStatus = "inventory_pending"
	OrderStatusInventoryUpdated OrderStatus = "inventory_updated"
	OrderStatusInventoryFailed  OrderStatus = "inventory_failed"
)

type Order struct {
	ID          int64           `db:"id"`
	BookingID   string          `db:"booking_id"`
	CustomerID  string          `db:"customer_id"`
	EventID     string          `db:"event_id"`
	TicketCount int32           `db:"ticket_count"`
	TotalPrice  decimal.Decimal `db:"total_price"`
	Status      OrderStatus     `db:"status"`
	Attempts    int32           `db:"attempts"`
	LastError   *string         `db:"last_error"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
