// Package pricing is the single place money gets rounded. Prices are
// snapshotted here exactly once, when a line enters a cart; afterwards they
// are copied, never re-derived.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"build-a-bite/internal/models"
)

// CatalogReader resolves a product's current catalog record.
type CatalogReader interface {
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// CompositionReader resolves a composition with its components loaded.
type CompositionReader interface {
	CompositionByID(ctx context.Context, id int64) (*models.Composition, error)
}

// Snapshot computes frozen prices from live catalog data.
type Snapshot struct {
	catalog      CatalogReader
	compositions CompositionReader
}

// NewSnapshot creates a snapshot manager over the given readers.
func NewSnapshot(catalog CatalogReader, compositions CompositionReader) *Snapshot {
	return &Snapshot{
		catalog:      catalog,
		compositions: compositions,
	}
}

// PriceForProduct reads the product's current catalog price, rounded to two
// digits. Called exactly once, when the product is added to a cart. Products
// flagged unavailable cannot be priced.
func (s *Snapshot) PriceForProduct(ctx context.Context, productID int64) (decimal.Decimal, error) {
	product, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if !product.Available {
		return decimal.Zero, &models.StateError{
			Code:    models.StateProductUnavailable,
			Message: fmt.Sprintf("product %q is not available", product.Name),
		}
	}
	return Round2(product.Price), nil
}

// PriceForComposition reads the composition's current derived price (component
// sum, or the explicit override), rounded to two digits. Also called exactly
// once, at add-time.
func (s *Snapshot) PriceForComposition(ctx context.Context, compositionID int64) (decimal.Decimal, error) {
	composition, err := s.compositions.CompositionByID(ctx, compositionID)
	if err != nil {
		return decimal.Zero, err
	}
	return Round2(composition.Price()), nil
}

// Subtotal computes unitPrice * quantity rounded to two digits. Called every
// time a line's quantity changes; the unit price itself is never touched.
func Subtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Round2 rounds half-up to two fractional digits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
