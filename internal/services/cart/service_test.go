package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"build-a-bite/internal/logger"
	"build-a-bite/internal/models"
)

func newTestService() (*Service, *memoryRepository, *mutablePrices) {
	repo := newMemoryRepository()
	prices := newMutablePrices()
	return NewService(repo, prices, logger.New("cart-test")), repo, prices
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	first, err := service.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, first.Lines)
	assert.True(t, first.Total.IsZero())

	second, err := service.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAddProduct_SnapshotsPrice(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()

	prices.products[7] = decimal.RequireFromString("4.20")

	cart, err := service.AddProduct(ctx, 1, 7, 2, "req")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "4.20", cart.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "8.40", cart.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "8.40", cart.Total.StringFixed(2))

	// A later catalog price change must not reach the existing line.
	prices.products[7] = decimal.RequireFromString("9.99")

	cart, err = service.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "4.20", cart.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "8.40", cart.Total.StringFixed(2))
}

func TestAddProduct_SameProductTwiceMakesTwoLines(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()

	prices.products[7] = decimal.RequireFromString("4.20")
	_, err := service.AddProduct(ctx, 1, 7, 1, "req")
	require.NoError(t, err)

	prices.products[7] = decimal.RequireFromString("5.00")
	cart, err := service.AddProduct(ctx, 1, 7, 1, "req")
	require.NoError(t, err)

	// Two independent snapshots of the same product.
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "4.20", cart.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "5.00", cart.Lines[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "9.20", cart.Total.StringFixed(2))
}

func TestAddComposition(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()

	prices.compositions[3] = decimal.RequireFromString("12.50")

	cart, err := service.AddComposition(ctx, 1, 3, 1, "req")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, models.CompositionRef{CompositionID: 3}, cart.Lines[0].Ref)
	assert.Equal(t, "12.50", cart.Total.StringFixed(2))
}

func TestAdd_RejectsNonPositiveQuantity(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()
	prices.products[7] = decimal.RequireFromString("4.20")

	for _, quantity := range []int{0, -1} {
		_, err := service.AddProduct(ctx, 1, 7, quantity, "req")
		var stateErr *models.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, models.StateInvalidQuantity, stateErr.Code)
	}
}

func TestAddProduct_UnknownProduct(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.AddProduct(context.Background(), 1, 99, 1, "req")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "product", notFound.Entity)
}

func TestUpdateQuantity_KeepsUnitPrice(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()

	prices.products[7] = decimal.RequireFromString("4.20")
	cart, err := service.AddProduct(ctx, 1, 7, 2, "req")
	require.NoError(t, err)
	lineID := cart.Lines[0].ID

	// Even with a new catalog price the frozen unit price is reused.
	prices.products[7] = decimal.RequireFromString("9.99")

	cart, err = service.UpdateQuantity(ctx, 1, lineID, 5, "req")
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
	assert.Equal(t, "4.20", cart.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "21.00", cart.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "21.00", cart.Total.StringFixed(2))
}

func TestUpdateQuantity_RejectsNonPositive(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()

	prices.products[7] = decimal.RequireFromString("4.20")
	cart, err := service.AddProduct(ctx, 1, 7, 2, "req")
	require.NoError(t, err)

	_, err = service.UpdateQuantity(ctx, 1, cart.Lines[0].ID, 0, "req")
	var stateErr *models.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.StateInvalidQuantity, stateErr.Code)
}

func TestUpdateQuantity_UnknownLine(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.UpdateQuantity(context.Background(), 1, 55, 2, "req")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "cart line", notFound.Entity)
}

func TestRemoveLine_RecomputesTotal(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()

	prices.products[7] = decimal.RequireFromString("4.20")
	prices.products[8] = decimal.RequireFromString("1.50")

	_, err := service.AddProduct(ctx, 1, 7, 1, "req")
	require.NoError(t, err)
	cart, err := service.AddProduct(ctx, 1, 8, 2, "req")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)

	cart, err = service.RemoveLine(ctx, 1, cart.Lines[0].ID, "req")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "3.00", cart.Total.StringFixed(2))
}

func TestRemoveLine_LineOfAnotherUser(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()

	prices.products[7] = decimal.RequireFromString("4.20")
	cart, err := service.AddProduct(ctx, 1, 7, 1, "req")
	require.NoError(t, err)

	// User 2 cannot see user 1's line.
	_, err = service.RemoveLine(ctx, 2, cart.Lines[0].ID, "req")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestWithCart_BlocksConcurrentMutations(t *testing.T) {
	service, _, prices := newTestService()
	ctx := context.Background()
	prices.products[7] = decimal.RequireFromString("4.20")

	entered := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		finished <- service.WithCart(ctx, 1, func(_ *models.Cart) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	added := make(chan error, 1)
	go func() {
		_, err := service.AddProduct(ctx, 1, 7, 1, "req")
		added <- err
	}()

	select {
	case <-added:
		t.Fatal("cart mutation ran while the cart was held")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-finished)
	require.NoError(t, <-added)

	cart, err := service.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestAddProduct_WriteFailureLeavesNothingBehind(t *testing.T) {
	service, repo, prices := newTestService()
	ctx := context.Background()

	prices.products[7] = decimal.RequireFromString("4.20")
	_, err := service.AddProduct(ctx, 1, 7, 1, "req")
	require.NoError(t, err)

	repo.failWrites = true
	_, err = service.AddProduct(ctx, 1, 7, 1, "req")
	require.Error(t, err)

	repo.failWrites = false
	cart, err := service.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
	assert.Equal(t, "4.20", cart.Total.StringFixed(2))
}
