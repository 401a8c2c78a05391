package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"build-a-bite/internal/database"
	"build-a-bite/internal/models"
)

// PostgresRepository reads and mutates persisted orders.
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates an order repository over the given pool.
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OrderByID loads an order with its lines and payment.
func (r *PostgresRepository) OrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRow(ctx, database.GetOrderByIDSQL, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Total,
		&order.Note,
		&order.DeliveryAddress,
		&order.CreatedAt,
		&order.DeliveredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	lines, err := r.orderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	payment, err := r.paymentByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Payment = payment

	return &order, nil
}

// OrdersByUser returns the user's orders, newest first, without lines.
func (r *PostgresRepository) OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return r.queryOrders(ctx, database.GetOrdersByUserSQL, userID)
}

// OrdersByStatus returns orders in the given status, newest first, without lines.
func (r *PostgresRepository) OrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return r.queryOrders(ctx, database.GetOrdersByStatusSQL, status)
}

// StatusHistory returns the status log for an order, oldest first.
func (r *PostgresRepository) StatusHistory(ctx context.Context, orderID int64) ([]models.OrderStatusLogEntry, error) {
	rows, err := r.db.Query(ctx, database.GetOrderStatusHistorySQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order status history: %w", err)
	}
	defer rows.Close()

	var entries []models.OrderStatusLogEntry
	for rows.Next() {
		var entry models.OrderStatusLogEntry
		err := rows.Scan(&entry.Status, &entry.ChangedBy, &entry.ChangedAt, &entry.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status log row: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// UpdateStatus writes the new status and its log row in one transaction. The
// update is conditional on the expected current status, so a caller working
// from a stale read cannot move the order backward. The delivered timestamp
// is set when the order reaches its final status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID int64, from, to models.OrderStatus, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updateSQL := database.UpdateOrderStatusSQL
	if to.IsFinal() {
		updateSQL = database.UpdateOrderDeliveredSQL
	}
	tag, err := tx.Exec(ctx, updateSQL, to, orderID, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &models.StateError{
			Code:    models.StateIllegalTransition,
			Message: fmt.Sprintf("order %d changed concurrently and is no longer %s", orderID, from),
		}
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, to, changedBy, nil)
	if err != nil {
		return fmt.Errorf("failed to insert order status log: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) queryOrders(ctx context.Context, sql string, arg interface{}) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Status,
			&order.Total,
			&order.Note,
			&order.DeliveryAddress,
			&order.CreatedAt,
			&order.DeliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *PostgresRepository) orderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	rows, err := r.db.Query(ctx, database.GetOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		var productID, compositionID *int64
		err := rows.Scan(&line.ID, &productID, &compositionID, &line.Quantity, &line.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line row: %w", err)
		}
		line.Ref, err = refFromColumns(productID, compositionID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (r *PostgresRepository) paymentByOrder(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.QueryRow(ctx, database.GetPaymentByOrderSQL, orderID).Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.CardID,
		&payment.Amount,
		&payment.AuthorizationCode,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return &payment, nil
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
