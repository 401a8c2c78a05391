package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/messaging"
	"build-a-bite/internal/models"
)

// Subscriber listens to the order events queue and logs every lifecycle
// change. Real delivery channels (push, email) would hang off this point.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

// NewSubscriber creates a notification subscriber over the order events queue.
func NewSubscriber(conn *messaging.Connection, log *logger.Logger) *Subscriber {
	consumer := messaging.NewConsumer(conn, log, messaging.OrderEventsQueue, "notification-subscriber", 10)
	return &Subscriber{
		consumer: consumer,
		logger:   log,
	}
}

// Run consumes order events until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	return s.consumer.StartConsuming(ctx, s.handleEvent)
}

func (s *Subscriber) handleEvent(_ context.Context, body []byte) error {
	var event models.OrderEventMessage
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal order event: %w", err)
	}

	action := "order_status_notification"
	message := fmt.Sprintf("Order %d moved from %s to %s", event.OrderID, event.OldStatus, event.NewStatus)
	if event.OldStatus == "" {
		action = "order_created_notification"
		message = fmt.Sprintf("Order %d created with status %s", event.OrderID, event.NewStatus)
	}

	s.logger.Info(action, message, "", map[string]interface{}{
		"order_id":   event.OrderID,
		"user_id":    event.UserID,
		"new_status": event.NewStatus,
		"total":      event.Total,
		"changed_by": event.ChangedBy,
	})

	return nil
}

// Close cancels the underlying consumer.
func (s *Subscriber) Close() error {
	return s.consumer.Close()
}
