package order

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

type memoryRepository struct {
	orders  map[int64]*models.Order
	history map[int64][]models.OrderStatusLogEntry

	// afterRead runs after OrderByID returns its copy, letting a test slip
	// another writer in between a caller's read and its write.
	afterRead func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		orders:  make(map[int64]*models.Order),
		history: make(map[int64][]models.OrderStatusLogEntry),
	}
}

func (m *memoryRepository) OrderByID(_ context.Context, orderID int64) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "order", ID: orderID}
	}
	copied := *order
	if m.afterRead != nil {
		m.afterRead()
	}
	return &copied, nil
}

func (m *memoryRepository) OrdersByUser(_ context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (m *memoryRepository) OrdersByStatus(_ context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range m.orders {
		if order.Status == status {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (m *memoryRepository) StatusHistory(_ context.Context, orderID int64) ([]models.OrderStatusLogEntry, error) {
	return m.history[orderID], nil
}

func (m *memoryRepository) UpdateStatus(_ context.Context, orderID int64, from, to models.OrderStatus, changedBy string) error {
	order := m.orders[orderID]
	if order.Status != from {
		return &models.StateError{
			Code:    models.StateIllegalTransition,
			Message: "order changed concurrently",
		}
	}
	order.Status = to
	if to.IsFinal() {
		now := time.Now().UTC()
		order.DeliveredAt = &now
	}
	m.history[orderID] = append(m.history[orderID], models.OrderStatusLogEntry{
		Status:    to,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
	})
	return nil
}

type recordingPublisher struct {
	events []interface{}
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, event interface{}) error {
	p.events = append(p.events, event)
	return nil
}

func newTestService() (*Service, *memoryRepository, *recordingPublisher) {
	repo := newMemoryRepository()
	publisher := &recordingPublisher{}
	return NewService(repo, publisher, logger.New("order-test")), repo, publisher
}

func seedOrder(repo *memoryRepository, id, userID int64, status models.OrderStatus) {
	repo.orders[id] = &models.Order{
		ID:        id,
		UserID:    userID,
		Status:    status,
		Total:     decimal.RequireFromString("20.90"),
		CreatedAt: time.Now().UTC(),
	}
	repo.history[id] = []models.OrderStatusLogEntry{
		{Status: models.StatusQueued, ChangedBy: "checkout", ChangedAt: time.Now().UTC()},
	}
}

func TestGetForUser(t *testing.T) {
	service, repo, _ := newTestService()
	seedOrder(repo, 100, 1, models.StatusQueued)

	order, err := service.GetForUser(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), order.ID)

	// Someone else's order is indistinguishable from a missing one.
	_, err = service.GetForUser(context.Background(), 2, 100)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "order", notFound.Entity)

	_, err = service.GetForUser(context.Background(), 1, 999)
	require.ErrorAs(t, err, &notFound)
}

func TestTransition_WalksTheFullLifecycle(t *testing.T) {
	service, repo, publisher := newTestService()
	seedOrder(repo, 100, 1, models.StatusQueued)

	var last *models.Order
	steps := []models.OrderStatus{models.StatusPreparing, models.StatusOutForDelivery, models.StatusDelivered}
	for _, target := range steps {
		order, err := service.Transition(context.Background(), 100, target, "staff", "req")
		require.NoError(t, err)
		assert.Equal(t, target, order.Status)
		last = order
	}

	// The delivering response itself carries the timestamp.
	require.NotNil(t, last.DeliveredAt)

	stored := repo.orders[100]
	assert.Equal(t, models.StatusDelivered, stored.Status)
	assert.NotNil(t, stored.DeliveredAt)

	// One creation entry plus one per transition.
	assert.Len(t, repo.history[100], 4)
	require.Len(t, publisher.events, 3)
	lastEvent := publisher.events[2].(*models.OrderEventMessage)
	assert.Equal(t, string(models.StatusOutForDelivery), lastEvent.OldStatus)
	assert.Equal(t, string(models.StatusDelivered), lastEvent.NewStatus)
}

func TestTransition_RejectsSkipsAndBackwardMoves(t *testing.T) {
	tests := []struct {
		name   string
		from   models.OrderStatus
		target models.OrderStatus
	}{
		{"skip ahead", models.StatusQueued, models.StatusOutForDelivery},
		{"straight to delivered", models.StatusQueued, models.StatusDelivered},
		{"backwards", models.StatusOutForDelivery, models.StatusPreparing},
		{"same status", models.StatusPreparing, models.StatusPreparing},
		{"out of delivered", models.StatusDelivered, models.StatusQueued},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, publisher := newTestService()
			seedOrder(repo, 100, 1, tt.from)

			_, err := service.Transition(context.Background(), 100, tt.target, "staff", "req")
			var stateErr *models.StateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, models.StateIllegalTransition, stateErr.Code)

			// Nothing moved, nothing published.
			assert.Equal(t, tt.from, repo.orders[100].Status)
			assert.Empty(t, publisher.events)
		})
	}
}

func TestTransition_StaleReadCannotMoveBackward(t *testing.T) {
	service, repo, publisher := newTestService()
	seedOrder(repo, 100, 1, models.StatusQueued)
	ctx := context.Background()

	// The caller reads queued, then two legal transitions land before its
	// write. The stale write must be rejected, not accepted as a backward
	// move.
	advanced := false
	repo.afterRead = func() {
		if advanced {
			return
		}
		advanced = true
		_, err := service.Transition(ctx, 100, models.StatusPreparing, "staff", "req")
		require.NoError(t, err)
		_, err = service.Transition(ctx, 100, models.StatusOutForDelivery, "staff", "req")
		require.NoError(t, err)
	}

	_, err := service.Transition(ctx, 100, models.StatusPreparing, "staff", "req")
	var stateErr *models.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.StateIllegalTransition, stateErr.Code)

	assert.Equal(t, models.StatusOutForDelivery, repo.orders[100].Status)

	// Seed entry plus the two interleaved transitions; nothing from the
	// stale caller.
	history := repo.history[100]
	require.Len(t, history, 3)
	assert.Equal(t, models.StatusPreparing, history[1].Status)
	assert.Equal(t, models.StatusOutForDelivery, history[2].Status)
	assert.Len(t, publisher.events, 2)
}

func TestTransition_UnknownOrder(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.Transition(context.Background(), 999, models.StatusPreparing, "staff", "req")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHistory_OwnerChecked(t *testing.T) {
	service, repo, _ := newTestService()
	seedOrder(repo, 100, 1, models.StatusQueued)

	history, err := service.History(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusQueued, history[0].Status)

	_, err = service.History(context.Background(), 2, 100)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListByStatus(t *testing.T) {
	service, repo, _ := newTestService()
	seedOrder(repo, 100, 1, models.StatusQueued)
	seedOrder(repo, 101, 2, models.StatusQueued)
	seedOrder(repo, 102, 1, models.StatusPreparing)

	queued, err := service.ListByStatus(context.Background(), models.StatusQueued)
	require.NoError(t, err)
	assert.Len(t, queued, 2)

	preparing, err := service.ListByStatus(context.Background(), models.StatusPreparing)
	require.NoError(t, err)
	assert.Len(t, preparing, 1)
}
