package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"build-a-bite/internal/database"
	"build-a-bite/internal/models"
)

// PostgresRepository persists carts. Lines store the product/composition
// reference as two nullable columns with a database-level XOR check; the
// mapping back to models.ItemRef happens here.
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates a cart repository over the given pool.
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CartByUserID loads the user's cart with its lines.
func (r *PostgresRepository) CartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.QueryRow(ctx, database.GetCartByUserSQL, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Total,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "cart", ID: userID}
		}
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	lines, err := r.cartLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines

	return &cart, nil
}

// CreateCart upserts an empty cart for the user.
func (r *PostgresRepository) CreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.QueryRow(ctx, database.InsertCartSQL, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cart: %w", err)
	}

	lines, err := r.cartLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines

	return &cart, nil
}

// AppendLine inserts the line and updates the cart total in one transaction.
func (r *PostgresRepository) AppendLine(ctx context.Context, cartID int64, line *models.CartLine, newTotal decimal.Decimal) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	productID, compositionID := refColumns(line.Ref)

	var id int64
	err = tx.QueryRow(ctx, database.InsertCartLineSQL,
		cartID, productID, compositionID, line.Quantity, line.UnitPrice, line.Subtotal,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert cart line: %w", err)
	}

	_, err = tx.Exec(ctx, database.UpdateCartTotalSQL, newTotal, cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to update cart total: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// SetLineQuantity updates the line and the cart total in one transaction.
func (r *PostgresRepository) SetLineQuantity(ctx context.Context, cartID, lineID int64, quantity int, subtotal, newTotal decimal.Decimal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, database.UpdateCartLineQuantitySQL, quantity, subtotal, lineID, cartID)
	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}

	_, err = tx.Exec(ctx, database.UpdateCartTotalSQL, newTotal, cartID)
	if err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}

	return tx.Commit(ctx)
}

// RemoveLine deletes the line and updates the cart total in one transaction.
func (r *PostgresRepository) RemoveLine(ctx context.Context, cartID, lineID int64, newTotal decimal.Decimal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, database.DeleteCartLineSQL, lineID, cartID)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}

	_, err = tx.Exec(ctx, database.UpdateCartTotalSQL, newTotal, cartID)
	if err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) cartLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	rows, err := r.db.Query(ctx, database.GetCartLinesSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var line models.CartLine
		var productID, compositionID *int64
		err := rows.Scan(
			&line.ID,
			&productID,
			&compositionID,
			&line.Quantity,
			&line.UnitPrice,
			&line.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line row: %w", err)
		}
		line.Ref, err = refFromColumns(productID, compositionID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
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

// refFromColumns rebuilds an ItemRef from the two nullable columns. The
// database check constraint guarantees exactly one is set.
func refFromColumns(productID, compositionID *int64) (models.ItemRef, error) {
	switch {
	case productID != nil && compositionID == nil:
		return models.ProductRef{ProductID: *productID}, nil
	case productID == nil && compositionID != nil:
		return models.CompositionRef{CompositionID: *compositionID}, nil
	default:
		return nil, fmt.Errorf("line references neither or both of product and composition")
	}
}
