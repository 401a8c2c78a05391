package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

func filledCart() *models.Cart {
	cart := &models.Cart{
		ID:     5,
		UserID: 1,
		Lines: []models.CartLine{
			{
				ID:        11,
				Ref:       models.ProductRef{ProductID: 7},
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("4.20"),
				Subtotal:  decimal.RequireFromString("8.40"),
			},
			{
				ID:        12,
				Ref:       models.CompositionRef{CompositionID: 3},
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("12.50"),
				Subtotal:  decimal.RequireFromString("12.50"),
			},
		},
	}
	cart.RecalculateTotal()
	return cart
}

func newTestService(cart *models.Cart) (*Service, *memoryRepository, *recordingPublisher) {
	repo := newMemoryRepository()
	repo.cards[9] = &models.Card{ID: 9, UserID: 1, MaskedNumber: "**** 4242"}
	publisher := &recordingPublisher{}
	service := NewService(repo, &fixedCartSource{cart: cart}, &stubAuthorizer{code: "AUTH-1", approved: true}, publisher, logger.New("checkout-test"))
	return service, repo, publisher
}

func TestCheckout_CreatesOrderFromCart(t *testing.T) {
	cart := filledCart()
	service, repo, publisher := newTestService(cart)

	order, err := service.Checkout(context.Background(), 1, 9, "ring twice", "1 Main St", "req")
	require.NoError(t, err)

	assert.Equal(t, models.StatusQueued, order.Status)
	assert.Equal(t, "20.90", order.Total.StringFixed(2))
	assert.Equal(t, "ring twice", order.Note)
	assert.Equal(t, "1 Main St", order.DeliveryAddress)

	// Lines are verbatim copies of the cart lines.
	require.Len(t, order.Lines, 2)
	assert.Equal(t, models.ProductRef{ProductID: 7}, order.Lines[0].Ref)
	assert.Equal(t, "8.40", order.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, models.CompositionRef{CompositionID: 3}, order.Lines[1].Ref)
	assert.Equal(t, "12.50", order.Lines[1].Subtotal.StringFixed(2))

	require.NotNil(t, order.Payment)
	assert.Equal(t, models.PaymentAuthorized, order.Payment.Status)
	assert.True(t, order.Payment.Amount.Equal(order.Total))
	assert.Equal(t, "AUTH-1", order.Payment.AuthorizationCode)

	assert.Equal(t, cart.ID, repo.emptiedCart)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0].(*models.OrderEventMessage)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Empty(t, event.OldStatus)
	assert.Equal(t, string(models.StatusQueued), event.NewStatus)
}

func TestCheckout_EmptyCart(t *testing.T) {
	service, repo, publisher := newTestService(&models.Cart{ID: 5, UserID: 1})

	_, err := service.Checkout(context.Background(), 1, 9, "", "", "req")
	var stateErr *models.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.StateEmptyCart, stateErr.Code)

	assert.Nil(t, repo.createdOrder)
	assert.Empty(t, publisher.events)
}

func TestCheckout_UnknownCard(t *testing.T) {
	service, _, _ := newTestService(filledCart())

	_, err := service.Checkout(context.Background(), 1, 999, "", "", "req")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "card", notFound.Entity)
}

func TestCheckout_CardOfAnotherUser(t *testing.T) {
	service, repo, _ := newTestService(filledCart())
	repo.cards[8] = &models.Card{ID: 8, UserID: 2, MaskedNumber: "**** 1111"}

	_, err := service.Checkout(context.Background(), 1, 8, "", "", "req")
	var stateErr *models.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.StatePaymentMethodMismatch, stateErr.Code)
}

func TestCheckout_NonPositiveTotal(t *testing.T) {
	cart := filledCart()
	for i := range cart.Lines {
		cart.Lines[i].Subtotal = decimal.Zero
	}
	cart.RecalculateTotal()

	service, repo, _ := newTestService(cart)

	_, err := service.Checkout(context.Background(), 1, 9, "", "", "req")
	var stateErr *models.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.StateNonPositiveTotal, stateErr.Code)
	assert.Nil(t, repo.createdOrder)
}

func TestCheckout_DeclinedPaymentStillCreatesOrder(t *testing.T) {
	repo := newMemoryRepository()
	repo.cards[9] = &models.Card{ID: 9, UserID: 1}
	publisher := &recordingPublisher{}
	service := NewService(repo, &fixedCartSource{cart: filledCart()}, &stubAuthorizer{code: "AUTH-2", approved: false}, publisher, logger.New("checkout-test"))

	order, err := service.Checkout(context.Background(), 1, 9, "", "", "req")
	require.NoError(t, err)
	require.NotNil(t, order.Payment)
	assert.Equal(t, models.PaymentFailed, order.Payment.Status)
	assert.False(t, order.Payment.Status.IsSuccessful())
}

func TestCheckout_WriteFailurePublishesNothing(t *testing.T) {
	service, repo, publisher := newTestService(filledCart())
	repo.failCreate = true

	_, err := service.Checkout(context.Background(), 1, 9, "", "", "req")
	require.Error(t, err)
	assert.Empty(t, publisher.events)
	assert.Zero(t, repo.emptiedCart)
}

func TestCheckout_WritesUnderTheCartLock(t *testing.T) {
	cart := filledCart()
	repo := newMemoryRepository()
	repo.cards[9] = &models.Card{ID: 9, UserID: 1}
	source := &fixedCartSource{cart: cart}
	service := NewService(repo, source, &stubAuthorizer{code: "AUTH-1", approved: true}, &recordingPublisher{}, logger.New("checkout-test"))

	heldDuringCreate := false
	repo.onCreate = func() {
		heldDuringCreate = source.held
	}

	_, err := service.Checkout(context.Background(), 1, 9, "", "", "req")
	require.NoError(t, err)
	assert.True(t, heldDuringCreate, "order creation must happen while the cart is held")
	assert.False(t, source.held, "lock must be released after checkout")
}

func TestCheckout_PublishFailureDoesNotFailCheckout(t *testing.T) {
	cart := filledCart()
	repo := newMemoryRepository()
	repo.cards[9] = &models.Card{ID: 9, UserID: 1}
	publisher := &recordingPublisher{err: assert.AnError}
	service := NewService(repo, &fixedCartSource{cart: cart}, &stubAuthorizer{code: "AUTH-3", approved: true}, publisher, logger.New("checkout-test"))

	order, err := service.Checkout(context.Background(), 1, 9, "", "", "req")
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
}
