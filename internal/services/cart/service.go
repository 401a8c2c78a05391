package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
	"build-a-bite/internal/pricing"
)

// Repository defines cart persistence. Every write keeps the stored total in
// step with the stored lines.
type Repository interface {
	CartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	CreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	AppendLine(ctx context.Context, cartID int64, line *models.CartLine, newTotal decimal.Decimal) (int64, error)
	SetLineQuantity(ctx context.Context, cartID, lineID int64, quantity int, subtotal, newTotal decimal.Decimal) error
	RemoveLine(ctx context.Context, cartID, lineID int64, newTotal decimal.Decimal) error
}

// PriceSource provides frozen unit prices at add-time.
type PriceSource interface {
	PriceForProduct(ctx context.Context, productID int64) (decimal.Decimal, error)
	PriceForComposition(ctx context.Context, compositionID int64) (decimal.Decimal, error)
}

// Service implements the cart aggregate. Mutations for one user are
// serialized behind a per-user lock.
type Service struct {
	repo   Repository
	prices PriceSource
	logger *logger.Logger
	locks  userLocks
}

// NewService creates a cart service.
func NewService(repo Repository, prices PriceSource, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		prices: prices,
		logger: log,
	}
}

// GetOrCreate returns the user's active cart, creating an empty one on first
// use. Idempotent.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.getOrCreate(ctx, userID)
}

// WithCart runs fn with the user's cart while holding the user's lock, so no
// cart mutation can interleave with fn. Checkout uses this to keep the cart
// frozen between reading it and emptying it.
func (s *Service) WithCart(ctx context.Context, userID int64, fn func(cart *models.Cart) error) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return fn(cart)
}

// AddProduct snapshots the product's current price and appends a line.
func (s *Service) AddProduct(ctx context.Context, userID, productID int64, quantity int, requestID string) (*models.Cart, error) {
	if quantity < 1 {
		return nil, invalidQuantity(quantity)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	unitPrice, err := s.prices.PriceForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.appendLine(ctx, cart, models.ProductRef{ProductID: productID}, quantity, unitPrice, requestID)
}

// AddComposition snapshots the composition's current derived price and
// appends a line.
func (s *Service) AddComposition(ctx context.Context, userID, compositionID int64, quantity int, requestID string) (*models.Cart, error) {
	if quantity < 1 {
		return nil, invalidQuantity(quantity)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	unitPrice, err := s.prices.PriceForComposition(ctx, compositionID)
	if err != nil {
		return nil, err
	}

	return s.appendLine(ctx, cart, models.CompositionRef{CompositionID: compositionID}, quantity, unitPrice, requestID)
}

// UpdateQuantity changes a line's quantity. The line's frozen unit price is
// never touched; only the subtotal and the cart total are recomputed.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int, requestID string) (*models.Cart, error) {
	if quantity < 1 {
		return nil, invalidQuantity(quantity)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.cartWithLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	line := cart.FindLine(lineID)
	line.Quantity = quantity
	line.Subtotal = pricing.Subtotal(line.UnitPrice, quantity)
	cart.RecalculateTotal()

	if err := s.repo.SetLineQuantity(ctx, cart.ID, lineID, quantity, line.Subtotal, cart.Total); err != nil {
		return nil, fmt.Errorf("failed to update cart line: %w", err)
	}

	s.logger.Debug("cart_line_updated", fmt.Sprintf("Line %d quantity set to %d", lineID, quantity), requestID, map[string]interface{}{
		"user_id":  userID,
		"line_id":  lineID,
		"quantity": quantity,
		"total":    cart.Total.StringFixed(2),
	})

	return cart, nil
}

// RemoveLine removes a line from the user's cart.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID int64, requestID string) (*models.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.cartWithLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	lines := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.ID != lineID {
			lines = append(lines, line)
		}
	}
	cart.Lines = lines
	cart.RecalculateTotal()

	if err := s.repo.RemoveLine(ctx, cart.ID, lineID, cart.Total); err != nil {
		return nil, fmt.Errorf("failed to remove cart line: %w", err)
	}

	s.logger.Debug("cart_line_removed", fmt.Sprintf("Line %d removed", lineID), requestID, map[string]interface{}{
		"user_id": userID,
		"line_id": lineID,
		"total":   cart.Total.StringFixed(2),
	})

	return cart, nil
}

func (s *Service) getOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.repo.CartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}

	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	cart, err = s.repo.CreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (s *Service) appendLine(ctx context.Context, cart *models.Cart, ref models.ItemRef, quantity int, unitPrice decimal.Decimal, requestID string) (*models.Cart, error) {
	line := models.CartLine{
		Ref:       ref,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  pricing.Subtotal(unitPrice, quantity),
	}

	cart.Lines = append(cart.Lines, line)
	cart.RecalculateTotal()

	id, err := s.repo.AppendLine(ctx, cart.ID, &line, cart.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to append cart line: %w", err)
	}
	cart.Lines[len(cart.Lines)-1].ID = id

	s.logger.Debug("cart_line_added", fmt.Sprintf("Line added to cart %d", cart.ID), requestID, map[string]interface{}{
		"cart_id":    cart.ID,
		"quantity":   quantity,
		"unit_price": unitPrice.StringFixed(2),
		"total":      cart.Total.StringFixed(2),
	})

	return cart, nil
}

// cartWithLine loads the user's cart and verifies the line belongs to it.
func (s *Service) cartWithLine(ctx context.Context, userID, lineID int64) (*models.Cart, error) {
	cart, err := s.repo.CartByUserID(ctx, userID)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &models.NotFoundError{Entity: "cart line", ID: lineID}
		}
		return nil, err
	}

	if cart.FindLine(lineID) == nil {
		return nil, &models.NotFoundError{Entity: "cart line", ID: lineID}
	}

	return cart, nil
}

func invalidQuantity(quantity int) error {
	return &models.StateError{
		Code:    models.StateInvalidQuantity,
		Message: fmt.Sprintf("quantity must be at least 1, got %d", quantity),
	}
}
