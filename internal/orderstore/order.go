package orderstore

import "time"

// Side is the FIX side of an order.
type Side string

const (
	SideBuy  Side = "1"
	SideSell Side = "2"
)

// Status is the FIX order status lifecycle value (§3).
type Status string

const (
	StatusNew       Status = "New"
	StatusReplaced  Status = "Replaced"
	StatusCanceled  Status = "Canceled"
	StatusFilled    Status = "Filled"
	StatusRejected  Status = "Rejected"
)

// Order is the persisted ledger entry of §3, keyed by ID (derived from the
// originating ClOrdID).
type Order struct {
	ID          uint64
	ClOrdID     string
	Account     string
	Symbol      string
	Side        Side
	Quantity    string
	Price       string
	OrdType     string
	TransactTime string
	OrdStatus   Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a defensive copy, matching the teacher's GetOrder contract:
// callers may freely mutate the returned value.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}

// IsOpen reports whether ord-status represents a still-working order. New and
// Replaced are open; Canceled, Filled, and Rejected are terminal.
func (o *Order) IsOpen() bool {
	switch o.OrdStatus {
	case StatusNew, StatusReplaced:
		return true
	default:
		return false
	}
}
