package checkout

import (
	"context"
	"fmt"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

// Repository defines checkout persistence. CreateOrderFromCart writes the
// order, its lines, the payment, the first status log row and empties the
// cart in a single transaction.
type Repository interface {
	CardByID(ctx context.Context, cardID int64) (*models.Card, error)
	CreateOrderFromCart(ctx context.Context, order *models.Order, payment *models.Payment, cartID int64) error
}

// CartSource exposes the cart being checked out under the cart service's
// per-user lock, so nothing can mutate the cart while fn runs.
type CartSource interface {
	WithCart(ctx context.Context, userID int64, fn func(cart *models.Cart) error) error
}

// EventPublisher announces the created order.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event interface{}) error
}

// Service turns a cart into an order. The order total is the cart total
// copied verbatim; nothing is re-priced at checkout.
type Service struct {
	repo       Repository
	carts      CartSource
	authorizer Authorizer
	publisher  EventPublisher
	logger     *logger.Logger
}

// NewService creates a checkout service.
func NewService(repo Repository, carts CartSource, authorizer Authorizer, publisher EventPublisher, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		carts:      carts,
		authorizer: authorizer,
		publisher:  publisher,
		logger:     log,
	}
}

// Checkout creates an order from the user's cart. The cart must be non-empty,
// the card must belong to the user and the total must be positive. Either the
// whole order is written and the cart emptied, or nothing changes. The user's
// cart lock is held for the whole operation, so a concurrent add can neither
// vanish into the order nor survive the emptying.
func (s *Service) Checkout(ctx context.Context, userID, cardID int64, note, deliveryAddress, requestID string) (*models.Order, error) {
	var order *models.Order
	err := s.carts.WithCart(ctx, userID, func(cart *models.Cart) error {
		created, err := s.checkout(ctx, cart, userID, cardID, note, deliveryAddress, requestID)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) checkout(ctx context.Context, cart *models.Cart, userID, cardID int64, note, deliveryAddress, requestID string) (*models.Order, error) {
	if len(cart.Lines) == 0 {
		return nil, &models.StateError{
			Code:    models.StateEmptyCart,
			Message: "cannot check out an empty cart",
		}
	}

	card, err := s.repo.CardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.UserID != userID {
		return nil, &models.StateError{
			Code:    models.StatePaymentMethodMismatch,
			Message: fmt.Sprintf("card %d does not belong to user %d", cardID, userID),
		}
	}

	if !cart.Total.IsPositive() {
		return nil, &models.StateError{
			Code:    models.StateNonPositiveTotal,
			Message: fmt.Sprintf("order total must be positive, got %s", cart.Total.StringFixed(2)),
		}
	}

	code, approved, err := s.authorizer.Authorize(ctx, card, cart.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize payment: %w", err)
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.StatusQueued,
		Total:           cart.Total,
		Note:            note,
		DeliveryAddress: deliveryAddress,
		Lines:           make([]models.OrderLine, 0, len(cart.Lines)),
	}
	for _, line := range cart.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			Ref:      line.Ref,
			Quantity: line.Quantity,
			Subtotal: line.Subtotal,
		})
	}

	status := models.PaymentAuthorized
	if !approved {
		status = models.PaymentFailed
	}
	payment := &models.Payment{
		CardID:            cardID,
		Amount:            cart.Total,
		AuthorizationCode: code,
		Status:            status,
	}

	if err := s.repo.CreateOrderFromCart(ctx, order, payment, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	order.Payment = payment

	s.logger.Info("order_created", fmt.Sprintf("Order %d created from cart %d", order.ID, cart.ID), requestID, map[string]interface{}{
		"order_id":       order.ID,
		"user_id":        userID,
		"total":          order.Total.StringFixed(2),
		"lines":          len(order.Lines),
		"payment_status": string(payment.Status),
	})

	event := models.NewOrderEventMessage(order, "", "checkout")
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("order_event_publish_failed", "Failed to publish order created event", requestID, err, map[string]interface{}{
			"order_id": order.ID,
		})
	}

	return order, nil
}
