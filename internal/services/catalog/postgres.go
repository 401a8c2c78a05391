package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"build-a-bite/internal/database"
	"build-a-bite/internal/models"
)

// PostgresRepository reads catalog products from PostgreSQL.
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates a catalog repository over the given pool.
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ProductByID returns one product, or a NotFoundError.
func (r *PostgresRepository) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.QueryRow(ctx, database.GetProductByIDSQL, id).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Available,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "product", ID: id}
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &product, nil
}

// ProductsByIDs returns the products for the given ids, in no particular
// order. Ids with no matching row are simply absent from the result.
func (r *PostgresRepository) ProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	rows, err := r.db.Query(ctx, database.GetProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
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
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, product)
	}

	return products, rows.Err()
}
