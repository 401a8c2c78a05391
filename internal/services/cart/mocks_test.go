package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"build-a-bite/internal/models"
)

// memoryRepository is an in-memory cart store with the same total-alongside-
// lines write discipline as the real repository.
type memoryRepository struct {
	carts      map[int64]*models.Cart
	nextCartID int64
	nextLineID int64
	failWrites bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		carts:      make(map[int64]*models.Cart),
		nextCartID: 1,
		nextLineID: 1,
	}
}

func (m *memoryRepository) CartByUserID(_ context.Context, userID int64) (*models.Cart, error) {
	cart, ok := m.carts[userID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "cart", ID: userID}
	}
	copied := *cart
	copied.Lines = append([]models.CartLine(nil), cart.Lines...)
	return &copied, nil
}

func (m *memoryRepository) CreateCart(_ context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{ID: m.nextCartID, UserID: userID, Total: decimal.Zero}
	m.nextCartID++
	m.carts[userID] = cart
	copied := *cart
	return &copied, nil
}

func (m *memoryRepository) AppendLine(_ context.Context, cartID int64, line *models.CartLine, newTotal decimal.Decimal) (int64, error) {
	if m.failWrites {
		return 0, errors.New("write failed")
	}
	cart := m.cartByID(cartID)
	stored := *line
	stored.ID = m.nextLineID
	m.nextLineID++
	cart.Lines = append(cart.Lines, stored)
	cart.Total = newTotal
	return stored.ID, nil
}

func (m *memoryRepository) SetLineQuantity(_ context.Context, cartID, lineID int64, quantity int, subtotal, newTotal decimal.Decimal) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	cart := m.cartByID(cartID)
	line := cart.FindLine(lineID)
	line.Quantity = quantity
	line.Subtotal = subtotal
	cart.Total = newTotal
	return nil
}

func (m *memoryRepository) RemoveLine(_ context.Context, cartID, lineID int64, newTotal decimal.Decimal) error {
	if m.failWrites {
		return errors.New("write failed")
	}
	cart := m.cartByID(cartID)
	lines := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.ID != lineID {
			lines = append(lines, line)
		}
	}
	cart.Lines = lines
	cart.Total = newTotal
	return nil
}

func (m *memoryRepository) cartByID(cartID int64) *models.Cart {
	for _, cart := range m.carts {
		if cart.ID == cartID {
			return cart
		}
	}
	return nil
}

// mutablePrices lets a test change live prices between calls to show the
// snapshot does not follow.
type mutablePrices struct {
	products     map[int64]decimal.Decimal
	compositions map[int64]decimal.Decimal
}

func newMutablePrices() *mutablePrices {
	return &mutablePrices{
		products:     make(map[int64]decimal.Decimal),
		compositions: make(map[int64]decimal.Decimal),
	}
}

func (p *mutablePrices) PriceForProduct(_ context.Context, productID int64) (decimal.Decimal, error) {
	price, ok := p.products[productID]
	if !ok {
		return decimal.Zero, &models.NotFoundError{Entity: "product", ID: productID}
	}
	return price, nil
}

func (p *mutablePrices) PriceForComposition(_ context.Context, compositionID int64) (decimal.Decimal, error) {
	price, ok := p.compositions[compositionID]
	if !ok {
		return decimal.Zero, &models.NotFoundError{Entity: "composition", ID: compositionID}
	}
	return price, nil
}
