package composition

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"build-a-bite/internal/database"
	"build-a-bite/internal/models"
)

// PostgresRepository persists compositions and their component lists.
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates a composition repository over the given pool.
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes the composition and its components in one transaction.
func (r *PostgresRepository) Insert(ctx context.Context, composition *models.Composition) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, database.InsertCompositionSQL,
		composition.Name,
		composition.BaseType,
		composition.UserID,
		composition.PriceOverride,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert composition: %w", err)
	}

	for position, component := range composition.Components {
		_, err = tx.Exec(ctx, database.InsertCompositionComponentSQL, id, component.ID, position)
		if err != nil {
			return 0, fmt.Errorf("failed to insert composition component: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// CompositionByID loads a composition with its components in insertion order.
func (r *PostgresRepository) CompositionByID(ctx context.Context, id int64) (*models.Composition, error) {
	var composition models.Composition
	err := r.db.QueryRow(ctx, database.GetCompositionByIDSQL, id).Scan(
		&composition.ID,
		&composition.Name,
		&composition.BaseType,
		&composition.UserID,
		&composition.PriceOverride,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "composition", ID: id}
		}
		return nil, fmt.Errorf("failed to query composition: %w", err)
	}

	rows, err := r.db.Query(ctx, database.GetCompositionComponentsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query composition components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Category,
			&product.Price,
			&product.Available,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component row: %w", err)
		}
		composition.Components = append(composition.Components, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read component rows: %w", err)
	}

	return &composition, nil
}
