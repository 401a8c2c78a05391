package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

// Repository defines order persistence. UpdateStatus must be conditional on
// the expected current status and fail with a StateError when the stored
// status moved on since the caller's read.
type Repository interface {
	OrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	OrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	StatusHistory(ctx context.Context, orderID int64) ([]models.OrderStatusLogEntry, error)
	UpdateStatus(ctx context.Context, orderID int64, from, to models.OrderStatus, changedBy string) error
}

// EventPublisher announces status changes.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event interface{}) error
}

// Service reads orders and drives the status lifecycle. Orders only move
// forward, one step at a time; everything else about an order is frozen at
// checkout.
type Service struct {
	repo      Repository
	publisher EventPublisher
	logger    *logger.Logger
}

// NewService creates an order service.
func NewService(repo Repository, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// GetForUser loads one order and checks it belongs to the user. Orders owned
// by someone else look exactly like orders that do not exist.
func (s *Service) GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, &models.NotFoundError{Entity: "order", ID: orderID}
	}
	return order, nil
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.repo.OrdersByUser(ctx, userID)
}

// ListByStatus returns all orders currently in the given status.
func (s *Service) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return s.repo.OrdersByStatus(ctx, status)
}

// History returns the status change log for an order the user owns.
func (s *Service) History(ctx context.Context, userID, orderID int64) ([]models.OrderStatusLogEntry, error) {
	if _, err := s.GetForUser(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.repo.StatusHistory(ctx, orderID)
}

// Transition advances an order to the target status. Only the single next
// step is legal; the change and its log row are written together, guarded by
// the status the caller read so concurrent transitions cannot interleave.
func (s *Service) Transition(ctx context.Context, orderID int64, target models.OrderStatus, changedBy, requestID string) (*models.Order, error) {
	order, err := s.repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, &models.StateError{
			Code:    models.StateIllegalTransition,
			Message: fmt.Sprintf("cannot transition order %d from %s to %s", orderID, order.Status, target),
		}
	}

	if err := s.repo.UpdateStatus(ctx, orderID, order.Status, target, changedBy); err != nil {
		var stateErr *models.StateError
		if errors.As(err, &stateErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	oldStatus := order.Status
	order.Status = target
	if target.IsFinal() {
		now := time.Now().UTC()
		order.DeliveredAt = &now
	}

	s.logger.Info("order_status_changed", fmt.Sprintf("Order %d moved from %s to %s", orderID, oldStatus, target), requestID, map[string]interface{}{
		"order_id":   orderID,
		"old_status": string(oldStatus),
		"new_status": string(target),
		"changed_by": changedBy,
	})

	event := models.NewOrderEventMessage(order, string(oldStatus), changedBy)
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("order_event_publish_failed", "Failed to publish status change event", requestID, err, map[string]interface{}{
			"order_id": orderID,
		})
	}

	return order, nil
}
