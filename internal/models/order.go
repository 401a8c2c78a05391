package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusQueued         OrderStatus = "queued"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
)

// ParseOrderStatus converts a raw string into a known order status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusQueued, StatusPreparing, StatusOutForDelivery, StatusDelivered:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status: %q", s)
	}
}

// CanTransitionTo reports whether target is the single legal next state.
// Orders only move forward, one step at a time.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case StatusQueued:
		return target == StatusPreparing
	case StatusPreparing:
		return target == StatusOutForDelivery
	case StatusOutForDelivery:
		return target == StatusDelivered
	default:
		return false
	}
}

// IsFinal reports whether the status is terminal.
func (s OrderStatus) IsFinal() bool {
	return s == StatusDelivered
}

// OrderLine is a frozen copy of a cart line taken at checkout. Nothing in it
// is ever recomputed.
type OrderLine struct {
	ID       int64           `json:"id" db:"id"`
	Ref      ItemRef         `json:"ref"`
	Quantity int             `json:"quantity" db:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Order is created atomically from a non-empty cart and mutated only through
// status transitions. Total is frozen at creation.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Note            string          `json:"note,omitempty" db:"note"`
	DeliveryAddress string          `json:"delivery_address,omitempty" db:"delivery_address"`
	Lines           []OrderLine     `json:"lines"`
	Payment         *Payment        `json:"payment,omitempty"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
}

// OrderStatusLogEntry is one row of the order status history.
type OrderStatusLogEntry struct {
	Status    OrderStatus `json:"status" db:"status"`
	ChangedBy string      `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time   `json:"changed_at" db:"changed_at"`
	Notes     *string     `json:"notes,omitempty" db:"notes"`
}
