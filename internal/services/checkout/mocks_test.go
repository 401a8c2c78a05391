package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"build-a-bite/internal/models"
)

type memoryRepository struct {
	cards        map[int64]*models.Card
	createdOrder *models.Order
	emptiedCart  int64
	failCreate   bool
	onCreate     func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{cards: make(map[int64]*models.Card)}
}

func (m *memoryRepository) CardByID(_ context.Context, cardID int64) (*models.Card, error) {
	card, ok := m.cards[cardID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "card", ID: cardID}
	}
	return card, nil
}

func (m *memoryRepository) CreateOrderFromCart(_ context.Context, order *models.Order, payment *models.Payment, cartID int64) error {
	if m.failCreate {
		return errors.New("create failed")
	}
	if m.onCreate != nil {
		m.onCreate()
	}
	order.ID = 100
	order.CreatedAt = time.Now().UTC()
	for i := range order.Lines {
		order.Lines[i].ID = int64(200 + i)
	}
	payment.ID = 300
	payment.OrderID = order.ID
	payment.CreatedAt = order.CreatedAt
	m.createdOrder = order
	m.emptiedCart = cartID
	return nil
}

// fixedCartSource mimics the cart service's lock handle: held is true exactly
// while fn runs.
type fixedCartSource struct {
	cart *models.Cart
	err  error
	held bool
}

func (f *fixedCartSource) WithCart(_ context.Context, _ int64, fn func(*models.Cart) error) error {
	if f.err != nil {
		return f.err
	}
	f.held = true
	defer func() { f.held = false }()
	return fn(f.cart)
}

type recordingPublisher struct {
	events []interface{}
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, event interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type stubAuthorizer struct {
	code     string
	approved bool
	err      error
}

func (a *stubAuthorizer) Authorize(_ context.Context, _ *models.Card, _ decimal.Decimal) (string, bool, error) {
	return a.code, a.approved, a.err
}
