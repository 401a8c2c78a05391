package models

import "time"

// OrderEventMessage is published to the order_events fanout exchange whenever
// an order is created or changes status.
type OrderEventMessage struct {
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	Total     string    `json:"total"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEventMessage builds an event for an order status change. OldStatus
// is empty for the creation event.
func NewOrderEventMessage(order *Order, oldStatus, changedBy string) *OrderEventMessage {
	return &OrderEventMessage{
		OrderID:   order.ID,
		UserID:    order.UserID,
		OldStatus: oldStatus,
		NewStatus: string(order.Status),
		Total:     order.Total.StringFixed(2),
		ChangedBy: changedBy,
		Timestamp: time.Now().UTC(),
	}
}
