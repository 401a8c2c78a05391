package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"build-a-bite/internal/database"
	"build-a-bite/internal/models"
)

// PostgresRepository persists orders created at checkout.
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates a checkout repository over the given pool.
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CardByID loads a stored card.
func (r *PostgresRepository) CardByID(ctx context.Context, cardID int64) (*models.Card, error) {
	var card models.Card
	err := r.db.QueryRow(ctx, database.GetCardByIDSQL, cardID).Scan(
		&card.ID,
		&card.UserID,
		&card.MaskedNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "card", ID: cardID}
		}
		return nil, fmt.Errorf("failed to query card: %w", err)
	}
	return &card, nil
}

// CreateOrderFromCart writes the order, its lines, the payment and the first
// status log row, then empties the cart. One transaction; any failure leaves
// the cart untouched.
func (r *PostgresRepository) CreateOrderFromCart(ctx context.Context, order *models.Order, payment *models.Payment, cartID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		order.UserID, order.Status, order.Total, order.Note, order.DeliveryAddress,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		productID, compositionID := refColumns(line.Ref)
		err = tx.QueryRow(ctx, database.InsertOrderLineSQL,
			order.ID, productID, compositionID, line.Quantity, line.Subtotal,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	payment.OrderID = order.ID
	err = tx.QueryRow(ctx, database.InsertPaymentSQL,
		payment.OrderID, payment.CardID, payment.Amount, payment.AuthorizationCode, payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL, order.ID, order.Status, "checkout", nil)
	if err != nil {
		return fmt.Errorf("failed to insert order status log: %w", err)
	}

	_, err = tx.Exec(ctx, database.EmptyCartLinesSQL, cartID)
	if err != nil {
		return fmt.Errorf("failed to empty cart: %w", err)
	}
	_, err = tx.Exec(ctx, database.UpdateCartTotalSQL, decimal.Zero, cartID)
	if err != nil {
		return fmt.Errorf("failed to reset cart total: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// refColumns splits an ItemRef into the two nullable columns.
func refColumns(ref models.ItemRef) (productID, compositionID *int64) {
	switch v := ref.(type) {
	case models.ProductRef:
		return &v.ProductID, nil
	case models.CompositionRef:
		return nil, &v.CompositionID
	default:
		return nil, nil
	}
}
